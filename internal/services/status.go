package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/vvka-141/csvlab/internal/files/scanner"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// TableCount is the row count of one table.
type TableCount struct {
	Schema string
	Table  string
	Rows   int64
}

// FileStatus is the populate state of one file_list entry.
type FileStatus struct {
	Path     string
	Sessions int64

	// Stale means the file content changed since it was listed.
	Stale bool
	// Missing means the file no longer exists.
	Missing bool
}

// Populated reports whether any session row references the file.
func (f FileStatus) Populated() bool { return f.Sessions > 0 }

// StatusReport summarizes the three schemas.
type StatusReport struct {
	Tables []TableCount

	// MissingSchemas lists schemas that have not been declared.
	MissingSchemas []string

	Files []FileStatus

	// Unlisted are CSV files in the source directory not yet in file_list.
	Unlisted []string

	Reserved  int64
	JobErrors []JobError
}

// Pending counts listed files without sessions.
func (r *StatusReport) Pending() int {
	n := 0
	for _, f := range r.Files {
		if !f.Populated() {
			n++
		}
	}
	return n
}

// Inspector builds status reports.
type Inspector struct {
	scanner *scanner.Scanner
}

// NewInspector creates an Inspector that re-fingerprints listed files with s.
// Panics if s is nil.
func NewInspector(s *scanner.Scanner) *Inspector {
	if s == nil {
		panic("scanner cannot be nil")
	}
	return &Inspector{scanner: s}
}

// Status reports table counts for every declared schema in names and the
// populate progress of the main schema. sourcePath is rescanned to find
// files not listed yet; a source directory without CSV files is not an error.
func (i *Inspector) Status(ctx context.Context, q csvlab.Querier, names csvlab.SchemaNames, sourcePath string) (*StatusReport, error) {
	report := &StatusReport{}

	var mainMod *schema.Module
	for _, name := range []string{names.Main, names.Lab, names.Experiment} {
		if name == "" {
			continue
		}
		mod, err := schema.OpenModule(ctx, q, name)
		if errors.Is(err, csvlab.ErrSchemaNotFound) {
			report.MissingSchemas = append(report.MissingSchemas, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		if name == names.Main {
			mainMod = mod
		}
		for _, t := range mod.Tables() {
			n, err := schema.Count(ctx, q, t)
			if err != nil {
				return nil, err
			}
			report.Tables = append(report.Tables, TableCount{Schema: name, Table: t.Name, Rows: n})
		}
	}

	if mainMod == nil {
		return report, nil
	}
	tables, err := lookupTutorialTables(mainMod)
	if err != nil {
		return nil, err
	}

	if err := i.fileProgress(ctx, q, tables, report); err != nil {
		return nil, err
	}
	if err := i.unlisted(sourcePath, report); err != nil {
		return nil, err
	}

	if tables.jobs != nil {
		jobs := NewJobs(tables.jobs)
		if report.Reserved, err = jobs.CountReserved(ctx, q, tables.session.Name); err != nil {
			return nil, err
		}
		if report.JobErrors, err = jobs.Errors(ctx, q, tables.session.Name); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (i *Inspector) fileProgress(ctx context.Context, q csvlab.Querier, tables tutorialTables, report *StatusReport) error {
	rows, err := q.Query(ctx, fmt.Sprintf(queryFileProgress, tables.fileList.Identifier(), tables.session.Identifier()))
	if err != nil {
		return fmt.Errorf("failed to read file progress: %w", err)
	}
	defer rows.Close()

	type listed struct {
		path, checksum string
		sessions       int64
	}
	var entries []listed
	for rows.Next() {
		var e listed
		if err := rows.Scan(&e.path, &e.checksum, &e.sessions); err != nil {
			return err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read file progress: %w", err)
	}

	for _, e := range entries {
		st := FileStatus{Path: e.path, Sessions: e.sessions}
		ref, err := i.scanner.Fingerprint(e.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			st.Missing = true
		case err != nil:
			return err
		default:
			st.Stale = ref.Checksum != e.checksum
		}
		report.Files = append(report.Files, st)
	}
	return nil
}

func (i *Inspector) unlisted(sourcePath string, report *StatusReport) error {
	scan, err := i.scanner.ScanDirectory(sourcePath)
	if errors.Is(err, csvlab.ErrNoSourceFiles) {
		return nil
	}
	if err != nil {
		return err
	}
	listed := make(map[string]bool, len(report.Files))
	for _, f := range report.Files {
		listed[f.Path] = true
	}
	for _, p := range scan.Paths() {
		if !listed[p] {
			report.Unlisted = append(report.Unlisted, p)
		}
	}
	return nil
}
