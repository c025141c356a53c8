package schema

import (
	"fmt"
	"strings"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// Table names.
const (
	TableFileList = "file_list"
	TableUser     = "user"
	TableSubject  = "subject"
	TableSession  = "session"
	TableJobs     = "~jobs"
)

// Column names shared across layouts.
const (
	ColExperimentFile = "experiment_file"
	ColChecksum       = "checksum"
	ColSizeBytes      = "size_bytes"
	ColUserName       = "user_name"
	ColSubjectName    = "subject_name"
	ColSessionDate    = "session_date"
	ColSessionResult  = "session_result"
)

// Layout names a set of tables declared together into one schema.
type Layout string

const (
	// LayoutTutorial is the main schema: file_list, user, subject, session and the jobs table.
	LayoutTutorial Layout = "tutorial"
	// LayoutLab holds user and subject.
	LayoutLab Layout = "lab"
	// LayoutExperiment holds a session table keyed on the lab schema's user and subject.
	LayoutExperiment Layout = "experiment"
)

// ParseLayout accepts "tutorial", "lab" or "experiment".
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case LayoutTutorial, LayoutLab, LayoutExperiment:
		return l, nil
	case "":
		return LayoutTutorial, nil
	}
	return "", fmt.Errorf("layout %q (want tutorial, lab or experiment): %w", s, csvlab.ErrInvalidConfig)
}

// SchemaFor returns the schema a layout is declared into.
func (l Layout) SchemaFor(names csvlab.SchemaNames) string {
	switch l {
	case LayoutLab:
		return names.Lab
	case LayoutExperiment:
		return names.Experiment
	default:
		return names.Main
	}
}

// Tables returns the layout's tables in dependency order.
// The experiment layout references names.Lab.
func (l Layout) Tables(names csvlab.SchemaNames) ([]Table, error) {
	switch l {
	case LayoutTutorial:
		return []Table{FileListTable(), UserTable(), SubjectTable(), SessionTable(), JobsTable()}, nil
	case LayoutLab:
		return []Table{UserTable(), SubjectTable()}, nil
	case LayoutExperiment:
		if names.Lab == "" {
			return nil, fmt.Errorf("experiment layout needs a lab schema: %w", csvlab.ErrInvalidConfig)
		}
		return []Table{ExperimentSessionTable(names.Lab)}, nil
	}
	return nil, fmt.Errorf("unknown layout %q: %w", l, csvlab.ErrInvalidConfig)
}

// Upstream returns the schema the layout's foreign keys point into, if any.
func (l Layout) Upstream(names csvlab.SchemaNames) string {
	if l == LayoutExperiment {
		return names.Lab
	}
	return ""
}

func nameColumn(name, comment string) Column {
	return Column{Name: name, Type: "varchar(64)", Comment: comment}
}

func sessionResultColumn() Column {
	return Column{Name: ColSessionResult, Type: "smallint", Check: "BETWEEN -128 AND 127", Comment: "session result"}
}

// FileListTable is the lookup of experiment CSV files.
func FileListTable() Table {
	return Table{
		Name:    TableFileList,
		Tier:    TierLookup,
		Comment: "experiment CSV files",
		Columns: []Column{
			{Name: ColExperimentFile, Type: "varchar(255)", Comment: "experiment file"},
			{Name: ColChecksum, Type: "char(64)", Comment: "sha-256 of the file when listed"},
			{Name: ColSizeBytes, Type: "bigint", Default: "0", Comment: "file size when listed"},
		},
		PrimaryKey: []string{ColExperimentFile},
	}
}

// UserTable is the manual user table.
func UserTable() Table {
	return Table{
		Name:       TableUser,
		Tier:       TierManual,
		Comment:    "users",
		Columns:    []Column{nameColumn(ColUserName, "user name")},
		PrimaryKey: []string{ColUserName},
	}
}

// SubjectTable is the manual subject table.
func SubjectTable() Table {
	return Table{
		Name:       TableSubject,
		Tier:       TierManual,
		Comment:    "subjects",
		Columns:    []Column{nameColumn(ColSubjectName, "subject name")},
		PrimaryKey: []string{ColSubjectName},
	}
}

// SessionTable is the computed session table populated from file_list.
func SessionTable() Table {
	return Table{
		Name:    TableSession,
		Tier:    TierComputed,
		Comment: "sessions read from experiment files",
		Columns: []Column{
			nameColumn(ColUserName, ""),
			nameColumn(ColSubjectName, ""),
			{Name: ColSessionDate, Type: "date", Comment: "session date"},
			sessionResultColumn(),
			{Name: ColExperimentFile, Type: "varchar(255)"},
		},
		PrimaryKey: []string{ColUserName, ColSubjectName, ColSessionDate},
		ForeignKey: []ForeignKey{
			{Columns: []string{ColUserName}, RefTable: TableUser, RefColumns: []string{ColUserName}},
			{Columns: []string{ColSubjectName}, RefTable: TableSubject, RefColumns: []string{ColSubjectName}},
			{Columns: []string{ColExperimentFile}, RefTable: TableFileList, RefColumns: []string{ColExperimentFile}},
		},
	}
}

// ExperimentSessionTable is the experiment schema's session table. It has no
// experiment_file and references user and subject in labSchema.
func ExperimentSessionTable(labSchema string) Table {
	return Table{
		Name:    TableSession,
		Tier:    TierManual,
		Comment: "sessions copied from the tutorial",
		Columns: []Column{
			nameColumn(ColUserName, ""),
			nameColumn(ColSubjectName, ""),
			{Name: ColSessionDate, Type: "date", Comment: "session date"},
			sessionResultColumn(),
		},
		PrimaryKey: []string{ColUserName, ColSubjectName, ColSessionDate},
		ForeignKey: []ForeignKey{
			{Columns: []string{ColUserName}, RefSchema: labSchema, RefTable: TableUser, RefColumns: []string{ColUserName}},
			{Columns: []string{ColSubjectName}, RefSchema: labSchema, RefTable: TableSubject, RefColumns: []string{ColSubjectName}},
		},
	}
}

// JobsTable tracks populate reservations and failures.
// A row exists only while a key is reserved or after it failed.
func JobsTable() Table {
	return Table{
		Name:    TableJobs,
		Tier:    TierJob,
		Comment: "populate reservations and errors",
		Columns: []Column{
			{Name: "table_name", Type: "varchar(255)"},
			{Name: "key_hash", Type: "char(32)"},
			{Name: "status", Type: "varchar(8)", Check: "IN ('reserved', 'error', 'ignore')"},
			{Name: "key", Type: "text"},
			{Name: "error_message", Type: "text", Nullable: true},
			{Name: "run_id", Type: "uuid"},
			{Name: "host", Type: "varchar(255)", Default: "''"},
			{Name: "pid", Type: "integer", Default: "0"},
			{Name: "timestamp", Type: "timestamptz", Default: "now()"},
		},
		PrimaryKey: []string{"table_name", "key_hash"},
	}
}
