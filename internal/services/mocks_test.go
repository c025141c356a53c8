package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type mockApprover struct {
	approved bool
	err      error
}

func (m *mockApprover) RequestApproval(_ context.Context, _ string) (bool, error) {
	return m.approved, m.err
}

type mockLogger struct{}

func (m *mockLogger) Verbose(string, ...any) {}
func (m *mockLogger) Info(string, ...any)    {}
func (m *mockLogger) Error(string, ...any)   {}

// recordingProgress captures progress events. onStart and onAdvance, when
// set, run inside the matching callback.
type recordingProgress struct {
	total     int
	keys      []string
	skipped   []string
	failed    int
	finished  bool
	onStart   func()
	onAdvance func(key string)
}

func (p *recordingProgress) Start(total int) {
	p.total = total
	if p.onStart != nil {
		p.onStart()
	}
}

func (p *recordingProgress) Advance(key string, err error) {
	p.keys = append(p.keys, key)
	if err != nil {
		p.failed++
	}
	if p.onAdvance != nil {
		p.onAdvance(key)
	}
}

func (p *recordingProgress) Skip(key string) { p.skipped = append(p.skipped, key) }

func (p *recordingProgress) Finish() { p.finished = true }

var _ csvlab.ProgressReporter = (*recordingProgress)(nil)
