package logging

import "github.com/vvka-141/csvlab/pkg/csvlab"

// NullLogger discards everything.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Verbose(string, ...any) {}
func (*NullLogger) Info(string, ...any)    {}
func (*NullLogger) Error(string, ...any)   {}

var _ csvlab.Logger = (*NullLogger)(nil)
