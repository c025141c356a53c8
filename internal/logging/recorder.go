package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// Level identifies which Logger method produced an Entry.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelError
)

// Entry is one recorded message.
type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps every message in memory, verbose ones included.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Verbose(format string, args ...any) { r.add(LevelVerbose, format, args) }
func (r *Recorder) Info(format string, args ...any)    { r.add(LevelInfo, format, args) }
func (r *Recorder) Error(format string, args ...any)   { r.add(LevelError, format, args) }

func (r *Recorder) add(level Level, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

// Messages returns the messages logged at level, oldest first.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any message at level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, m := range r.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

var _ csvlab.Logger = (*Recorder)(nil)
