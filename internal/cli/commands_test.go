package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func executeRoot(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root.Execute()
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "declare", "populate", "copy", "status", "drop", "config", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestCommands_RequireSourceDir(t *testing.T) {
	for _, name := range []string{"run", "declare", "populate", "copy", "status", "drop"} {
		t.Run(name, func(t *testing.T) {
			err := executeRoot(t, name)
			require.Error(t, err)
			assert.Equal(t, csvlab.ExitUsageError, csvlab.ExitCodeForError(err), err.Error())
		})
	}
}

func TestCommands_SharedFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "declare", "populate", "copy", "status"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{
			"connection", "host", "port", "username", "database", "sslmode",
			"sslcert", "sslkey", "sslrootcert", "aws", "azure", "google",
			"schema", "lab-schema", "experiment-schema", "timeout", "create-database",
		} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
	for _, name := range []string{"run", "populate"} {
		cmd, _, _ := root.Find([]string{name})
		for _, flag := range []string{"order", "max-calls", "suppress-errors", "reserve-jobs", "retry-errors", "progress"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
	run, _, _ := root.Find([]string{"run"})
	assert.Equal(t, "true", run.Flags().Lookup("declare-targets").DefValue)
	assert.Equal(t, "h", run.Flags().Lookup("host").Shorthand)
}

func TestRunCmd_EmptySourceDir(t *testing.T) {
	clearConnectionEnv(t)
	err := executeRoot(t, "run", t.TempDir(), "-d", "tutorial")
	require.Error(t, err)
	assert.ErrorIs(t, err, csvlab.ErrNoSourceFiles)
	assert.Equal(t, csvlab.ExitInvalidSource, csvlab.ExitCodeForError(err))
}

func TestRunCmd_NonexistentSourceDir(t *testing.T) {
	clearConnectionEnv(t)
	err := executeRoot(t, "run", filepath.Join(t.TempDir(), "missing"), "-d", "tutorial")
	assert.ErrorIs(t, err, csvlab.ErrNoSourceFiles)
}

func TestRunCmd_InvalidOrder(t *testing.T) {
	clearConnectionEnv(t)
	err := executeRoot(t, "run", t.TempDir(), "--order", "sideways")
	assert.Equal(t, csvlab.ExitConfigError, csvlab.ExitCodeForError(err))
}

func TestRunCmd_SameMainAndLabSchema(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("user_name,subject_name,session_date,session_result\n"), 0o644))

	err := executeRoot(t, "run", dir, "--schema", "x", "--lab-schema", "x")
	assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
}

func TestDeclareCmd_InvalidLayout(t *testing.T) {
	clearConnectionEnv(t)
	err := executeRoot(t, "declare", t.TempDir(), "--layout", "warehouse")
	assert.Equal(t, csvlab.ExitConfigError, csvlab.ExitCodeForError(err))
}

func TestDropCmd_RequiresSchemaFlag(t *testing.T) {
	clearConnectionEnv(t)
	err := executeRoot(t, "drop", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Equal(t, csvlab.ExitUsageError, csvlab.ExitCodeForError(err))
}

func TestConfigCmd_RequiresTerminal(t *testing.T) {
	t.Setenv("CSVLAB_NON_INTERACTIVE", "1")
	err := executeRoot(t, "config", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}
