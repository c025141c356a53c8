package tui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeEnv(vars map[string]string, terminal bool) Environment {
	return Environment{
		Getenv:     func(k string) string { return vars[k] },
		IsTerminal: func(int) bool { return terminal },
	}
}

func TestEnvironment_Mode(t *testing.T) {
	tests := []struct {
		name     string
		vars     map[string]string
		terminal bool
		want     Mode
	}{
		{"terminal", nil, true, ModeInteractive},
		{"no terminal", nil, false, ModeNonInteractive},
		{"override 1", map[string]string{"CSVLAB_NON_INTERACTIVE": "1"}, true, ModeNonInteractive},
		{"override true", map[string]string{"CSVLAB_NON_INTERACTIVE": "TRUE"}, true, ModeNonInteractive},
		{"override 0 is ignored", map[string]string{"CSVLAB_NON_INTERACTIVE": "0"}, true, ModeInteractive},
		{"CI", map[string]string{"CI": "true"}, true, ModeNonInteractive},
		{"NO_COLOR", map[string]string{"NO_COLOR": "1"}, true, ModeNonInteractive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fakeEnv(tt.vars, tt.terminal).Mode(0, 1))
		})
	}
}

func TestEnvironment_Mode_ChecksEveryDescriptor(t *testing.T) {
	env := Environment{
		Getenv:     func(string) string { return "" },
		IsTerminal: func(fd int) bool { return fd == 1 },
	}
	assert.Equal(t, ModeInteractive, env.Mode(1))
	assert.Equal(t, ModeNonInteractive, env.Mode(0, 1))
}

func TestDetectMode_NotInteractiveUnderTest(t *testing.T) {
	t.Setenv("CSVLAB_NON_INTERACTIVE", "1")
	assert.Equal(t, ModeNonInteractive, DetectMode())
	assert.Equal(t, ModeNonInteractive, DetectOutputMode(os.Stderr))
	assert.False(t, IsInteractive())
}
