package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vvka-141/csvlab/internal/services"
)

func TestRenderStatus(t *testing.T) {
	report := &services.StatusReport{
		Tables: []services.TableCount{
			{Schema: "tutorial", Table: "session", Rows: 4},
		},
		MissingSchemas: []string{"experiment"},
		Files: []services.FileStatus{
			{Path: "a.csv", Sessions: 4},
			{Path: "b.csv"},
			{Path: "c.csv", Sessions: 1, Stale: true},
			{Path: "d.csv", Missing: true},
		},
		Unlisted: []string{"e.csv"},
		Reserved: 2,
		JobErrors: []services.JobError{
			{Key: "b.csv", Message: "line 2: bad date", Host: "worker", PID: 42, Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}

	var out bytes.Buffer
	RenderStatus(&out, report)
	got := out.String()

	for _, want := range []string{
		`schema "experiment" is not declared`,
		"tutorial", "session", "4",
		"done", "pending", "changed", "missing",
		"2 of 4 file(s) pending",
		"e.csv",
		"2 key(s) reserved",
		"1 failed key(s)", "line 2: bad date", "worker:42", "2026-01-02 03:04:05",
	} {
		assert.Contains(t, got, want)
	}
}

func TestRenderStatus_Empty(t *testing.T) {
	var out bytes.Buffer
	RenderStatus(&out, &services.StatusReport{})
	assert.Empty(t, out.String())
}
