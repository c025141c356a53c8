package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

var (
	verboseTag = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ConsoleLogger writes one line per message, stderr by default. Level tags
// are colored when the output is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	verbose bool
	styled  bool
	out     io.Writer
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger on stderr. Verbose calls are
// dropped unless verbose is set.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	l := NewConsoleLoggerTo(os.Stderr, verbose)
	l.styled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stderr.Fd()))
	return l
}

// NewConsoleLoggerTo creates an unstyled ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{verbose: verbose, out: w}
}

func (l *ConsoleLogger) Verbose(format string, args ...any) {
	if l.verbose {
		l.write(l.tag(verboseTag, "[VERBOSE]"), format, args)
	}
}

func (l *ConsoleLogger) Info(format string, args ...any) {
	l.write("", format, args)
}

func (l *ConsoleLogger) Error(format string, args ...any) {
	l.write(l.tag(errorTag, "[ERROR]"), format, args)
}

// IsVerbose reports whether Verbose output is enabled.
func (l *ConsoleLogger) IsVerbose() bool { return l.verbose }

func (l *ConsoleLogger) tag(style lipgloss.Style, text string) string {
	if l.styled {
		text = style.Render(text)
	}
	return text + " "
}

// write formats only when args are given so a literal % survives.
func (l *ConsoleLogger) write(prefix, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, prefix+msg+"\n")
}

var _ csvlab.Logger = (*ConsoleLogger)(nil)
