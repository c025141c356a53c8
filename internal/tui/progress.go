package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

type progressAdvanceMsg struct {
	key     string
	err     error
	skipped bool
}

type progressFinishMsg struct{}

// progressModel renders one populate call: a bar, counters and the last key.
type progressModel struct {
	bar         progress.Model
	spinner     spinner.Model
	total       int
	done        int
	failed      int
	skipped     int
	last        string
	finished    bool
	onInterrupt func()
}

func newProgressModel(total int, onInterrupt func()) progressModel {
	return progressModel{
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		total:       total,
		onInterrupt: onInterrupt,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressAdvanceMsg:
		m.done++
		m.last = msg.key
		switch {
		case msg.skipped:
			m.skipped++
		case msg.err != nil:
			m.failed++
		}
		return m, nil
	case progressFinishMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			m.finished = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m progressModel) View() string {
	var b strings.Builder
	if m.finished {
		b.WriteString(SuccessStyle.Render(SymbolCheck))
	} else {
		b.WriteString(m.spinner.View())
	}
	fmt.Fprintf(&b, " Populating %s %d/%d", m.bar.ViewAs(m.percent()), m.done, m.total)
	if m.skipped > 0 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf(" %s %d skipped", SymbolSkip, m.skipped)))
	}
	if m.failed > 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf(" %s %d failed", SymbolCross, m.failed)))
	}
	if m.last != "" && !m.finished {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("  " + m.last))
	}
	b.WriteString("\n")
	return b.String()
}

// ProgramProgress shows populate progress with a bubbletea program running
// in its own goroutine. Start and Finish must be called from the same goroutine.
type ProgramProgress struct {
	out         io.Writer
	onInterrupt func()
	program     *tea.Program
	done        chan struct{}
}

// NewProgramProgress creates a reporter rendering to out. onInterrupt runs
// when the user presses ctrl+c while the program owns the terminal.
func NewProgramProgress(out io.Writer, onInterrupt func()) *ProgramProgress {
	return &ProgramProgress{out: out, onInterrupt: onInterrupt}
}

func (p *ProgramProgress) Start(total int) {
	p.program = tea.NewProgram(newProgressModel(total, p.onInterrupt), tea.WithOutput(p.out))
	p.done = make(chan struct{})
	go func(program *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = program.Run()
	}(p.program, p.done)
}

func (p *ProgramProgress) Advance(key string, err error) {
	if p.program != nil {
		p.program.Send(progressAdvanceMsg{key: key, err: err})
	}
}

func (p *ProgramProgress) Skip(key string) {
	if p.program != nil {
		p.program.Send(progressAdvanceMsg{key: key, skipped: true})
	}
}

func (p *ProgramProgress) Finish() {
	if p.program == nil {
		return
	}
	p.program.Send(progressFinishMsg{})
	<-p.done
	p.program = nil
}

// LineProgress writes one line per processed key. Used when no terminal is attached.
type LineProgress struct {
	out   io.Writer
	total int
	done  int
}

func NewLineProgress(out io.Writer) *LineProgress {
	return &LineProgress{out: out}
}

func (p *LineProgress) Start(total int) {
	p.total = total
	p.done = 0
	fmt.Fprintf(p.out, "Populating %d file(s)\n", total)
}

func (p *LineProgress) Advance(key string, err error) {
	p.done++
	if err != nil {
		fmt.Fprintf(p.out, "[%d/%d] %s %s: %v\n", p.done, p.total, SymbolCross, key, err)
		return
	}
	fmt.Fprintf(p.out, "[%d/%d] %s %s\n", p.done, p.total, SymbolCheck, key)
}

func (p *LineProgress) Skip(key string) {
	p.done++
	fmt.Fprintf(p.out, "[%d/%d] %s %s: handled by another run\n", p.done, p.total, SymbolSkip, key)
}

func (p *LineProgress) Finish() {}

// NewProgressReporter picks the bubbletea display for interactive terminals
// and plain lines otherwise.
func NewProgressReporter(mode Mode, out io.Writer, onInterrupt func()) csvlab.ProgressReporter {
	if mode == ModeInteractive {
		return NewProgramProgress(out, onInterrupt)
	}
	return NewLineProgress(out)
}

var (
	_ csvlab.ProgressReporter = (*ProgramProgress)(nil)
	_ csvlab.ProgressReporter = (*LineProgress)(nil)
)
