package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vvka-141/csvlab/internal/services"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

func fileState(f services.FileStatus) string {
	switch {
	case f.Missing:
		return ErrorStyle.Render("missing")
	case !f.Populated():
		return WarningStyle.Render("pending")
	case f.Stale:
		return WarningStyle.Render("changed")
	default:
		return SuccessStyle.Render("done")
	}
}

// RenderStatus writes r as tables: row counts, then the listed files, then
// unlisted files and job errors when there are any.
func RenderStatus(w io.Writer, r *services.StatusReport) {
	for _, name := range r.MissingSchemas {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("%s schema %q is not declared", SymbolWarning, name)))
	}

	if len(r.Tables) > 0 {
		counts := newTable("SCHEMA", "TABLE", "ROWS")
		for _, t := range r.Tables {
			counts.Row(t.Schema, t.Table, strconv.FormatInt(t.Rows, 10))
		}
		fmt.Fprintln(w, counts.Render())
	}

	if len(r.Files) > 0 {
		files := newTable("FILE", "SESSIONS", "STATE")
		for _, f := range r.Files {
			files.Row(f.Path, strconv.FormatInt(f.Sessions, 10), fileState(f))
		}
		fmt.Fprintln(w, files.Render())
		fmt.Fprintf(w, "%d of %d file(s) pending\n", r.Pending(), len(r.Files))
	}

	if len(r.Unlisted) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("Not listed yet (run declare or run to add):"))
		for _, p := range r.Unlisted {
			fmt.Fprintf(w, "  %s %s\n", SymbolBullet, p)
		}
	}

	if r.Reserved > 0 {
		fmt.Fprintf(w, "%d key(s) reserved by running jobs\n", r.Reserved)
	}
	if len(r.JobErrors) > 0 {
		errs := newTable("FILE", "ERROR", "HOST", "AT")
		for _, e := range r.JobErrors {
			errs.Row(e.Key, e.Message, fmt.Sprintf("%s:%d", e.Host, e.PID), e.Timestamp.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("%d failed key(s), rerun populate with --retry-errors:", len(r.JobErrors))))
		fmt.Fprintln(w, errs.Render())
	}
}
