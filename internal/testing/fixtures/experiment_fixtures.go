package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/csvlab/internal/files/filesystem"
)

// Header is the canonical CSV header.
const Header = "user_name,subject_name,session_date,session_result"

// Row is one session line in a fixture file.
type Row struct {
	User, Subject, Date string
	Result              int
}

// ExperimentFixtureBuilder builds a source directory of experiment CSV files.
//
// Example usage:
//
//	fs := NewExperimentFixtureBuilder().
//	    AddSession("day1.csv", "alice", "mouse1", "2024-01-01", 5).
//	    AddSession("day1.csv", "bob", "mouse1", "2024-01-01", 3).
//	    AddFile("notes.txt", "ignored").
//	    Build("/data")
type ExperimentFixtureBuilder struct {
	rows  map[string][]Row
	files map[string]string
}

// NewExperimentFixtureBuilder creates an empty fixture builder.
func NewExperimentFixtureBuilder() *ExperimentFixtureBuilder {
	return &ExperimentFixtureBuilder{
		rows:  make(map[string][]Row),
		files: make(map[string]string),
	}
}

// AddSession appends a session row to the named CSV file.
func (b *ExperimentFixtureBuilder) AddSession(file, user, subject, date string, result int) *ExperimentFixtureBuilder {
	b.rows[file] = append(b.rows[file], Row{User: user, Subject: subject, Date: date, Result: result})
	return b
}

// AddEmptyCSV adds a CSV file holding only the header.
func (b *ExperimentFixtureBuilder) AddEmptyCSV(file string) *ExperimentFixtureBuilder {
	if _, ok := b.rows[file]; !ok {
		b.rows[file] = nil
	}
	return b
}

// AddFile adds an arbitrary file with literal content.
func (b *ExperimentFixtureBuilder) AddFile(path, content string) *ExperimentFixtureBuilder {
	b.files[path] = content
	return b
}

// Contents renders every file to its content, keyed by relative path.
func (b *ExperimentFixtureBuilder) Contents() map[string]string {
	out := make(map[string]string, len(b.rows)+len(b.files))
	for file, rows := range b.rows {
		var sb strings.Builder
		sb.WriteString(Header + "\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "%s,%s,%s,%d\n", r.User, r.Subject, r.Date, r.Result)
		}
		out[file] = sb.String()
	}
	for path, content := range b.files {
		out[path] = content
	}
	return out
}

// Files returns the relative paths of all files, sorted.
func (b *ExperimentFixtureBuilder) Files() []string {
	var paths []string
	for p := range b.Contents() {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build renders the fixture into an in-memory filesystem rooted at root.
func (b *ExperimentFixtureBuilder) Build(root string) *filesystem.MemoryFileSystem {
	fs := filesystem.NewMemoryFileSystem(root)
	for path, content := range b.Contents() {
		fs.AddFile(path, content)
	}
	return fs
}

// WriteTo writes the fixture files under dir on disk.
func (b *ExperimentFixtureBuilder) WriteTo(dir string) error {
	for path, content := range b.Contents() {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}
