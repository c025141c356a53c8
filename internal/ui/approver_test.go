package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForcedApprover_CountsDownThenApproves(t *testing.T) {
	var out bytes.Buffer
	var slept []time.Duration
	a := &ForcedApprover{output: &out, sleepFn: func(d time.Duration) { slept = append(slept, d) }}

	ok, err := a.RequestApproval(context.Background(), "tutorial_lab")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, slept, 5)
	assert.Contains(t, out.String(), `drop schema "tutorial_lab"`)
	assert.Contains(t, out.String(), "Dropping in: 1 seconds")
	assert.Contains(t, out.String(), "Proceeding with schema drop")
}

func TestForcedApprover_CancelledDuringCountdown(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	a := &ForcedApprover{output: &out, sleepFn: func(time.Duration) {
		calls++
		if calls == 2 {
			cancel()
		}
	}}

	ok, err := a.RequestApproval(ctx, "tutorial_lab")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	assert.NotContains(t, out.String(), "Proceeding")
}

func TestForcedApprover_CancelledAfterLastTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	a := &ForcedApprover{output: io.Discard, sleepFn: func(time.Duration) {
		calls++
		if calls == 5 {
			cancel()
		}
	}}

	ok, err := a.RequestApproval(ctx, "s")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInteractiveApprover(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		message string
	}{
		{"exact name", "lab_production\n", true, "Confirmed"},
		{"surrounding spaces", "  lab_production  \n", true, "Confirmed"},
		{"no trailing newline", "lab_production", true, "Confirmed"},
		{"wrong name", "lab\n", false, "does not match schema name 'lab_production'"},
		{"case differs", "LAB_PRODUCTION\n", false, "does not match"},
		{"empty line", "\n", false, "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			a := &InteractiveApprover{input: strings.NewReader(tt.input), output: &out}

			ok, err := a.RequestApproval(context.Background(), "lab_production")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "DROP the schema 'lab_production'")
			assert.Contains(t, out.String(), tt.message)
		})
	}
}

func TestInteractiveApprover_ReadError(t *testing.T) {
	a := &InteractiveApprover{input: strings.NewReader(""), output: io.Discard}

	ok, err := a.RequestApproval(context.Background(), "s")

	assert.False(t, ok)
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorContains(t, err, "failed to read input")
}

// blockingReader never returns, like a terminal nobody types into.
type blockingReader struct{ done chan struct{} }

func (r blockingReader) Read([]byte) (int, error) {
	<-r.done
	return 0, errors.New("closed")
}

func TestInteractiveApprover_ContextCancelled(t *testing.T) {
	r := blockingReader{done: make(chan struct{})}
	defer close(r.done)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	a := &InteractiveApprover{input: r, output: io.Discard}

	ok, err := a.RequestApproval(ctx, "s")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConstructorsWriteToStderr(t *testing.T) {
	assert.IsType(t, &ForcedApprover{}, NewForcedApprover(false))
	assert.IsType(t, &InteractiveApprover{}, NewInteractiveApprover(true))
}
