package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vvka-141/csvlab/internal/files/filesystem"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// DateLayout is the only accepted session_date format.
const DateLayout = "2006-01-02"

// MaxNameLength matches the varchar(64) user_name and subject_name columns.
const MaxNameLength = 64

type field int

const (
	fieldUser field = iota
	fieldSubject
	fieldDate
	fieldResult
	fieldCount
)

var fieldNames = [fieldCount]string{"user_name", "subject_name", "session_date", "session_result"}

var headerAliases = map[string]field{
	"user_name":      fieldUser,
	"user":           fieldUser,
	"subject_name":   fieldSubject,
	"subject":        fieldSubject,
	"session_date":   fieldDate,
	"date":           fieldDate,
	"session_result": fieldResult,
	"result":         fieldResult,
}

// Reader streams session records from one CSV file.
type Reader struct {
	csv    *csv.Reader
	source string
	index  [fieldCount]int
}

// NewReader reads and validates the header. source names the file in errors.
func NewReader(r io.Reader, source string) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file, header expected: %w", source, csvlab.ErrInvalidRecord)
	}
	if err != nil {
		return nil, wrapParseError(source, err)
	}

	reader := &Reader{csv: cr, source: source}
	if err := reader.mapHeader(header); err != nil {
		return nil, err
	}
	return reader, nil
}

func (r *Reader) mapHeader(header []string) error {
	for i := range r.index {
		r.index[i] = -1
	}

	var errs []error
	for col, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		f, ok := headerAliases[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%s:1: unknown column %q: %w", r.source, raw, csvlab.ErrInvalidRecord))
			continue
		}
		if r.index[f] >= 0 {
			errs = append(errs, fmt.Errorf("%s:1: column %s given twice: %w", r.source, fieldNames[f], csvlab.ErrInvalidRecord))
			continue
		}
		r.index[f] = col
	}
	for f, col := range r.index {
		if col < 0 {
			errs = append(errs, fmt.Errorf("%s:1: missing column %s: %w", r.source, fieldNames[f], csvlab.ErrInvalidRecord))
		}
	}
	return errors.Join(errs...)
}

// Next returns the next record, or io.EOF after the last one.
// Blank lines are skipped.
func (r *Reader) Next() (csvlab.SessionRecord, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return csvlab.SessionRecord{}, io.EOF
		}
		return csvlab.SessionRecord{}, wrapParseError(r.source, err)
	}

	line, _ := r.csv.FieldPos(0)
	value := func(f field) string { return strings.TrimSpace(row[r.index[f]]) }

	rec := csvlab.SessionRecord{
		UserName:    value(fieldUser),
		SubjectName: value(fieldSubject),
		Line:        line,
	}

	if err := validateName(fieldNames[fieldUser], rec.UserName); err != nil {
		return csvlab.SessionRecord{}, r.rowError(line, err)
	}
	if err := validateName(fieldNames[fieldSubject], rec.SubjectName); err != nil {
		return csvlab.SessionRecord{}, r.rowError(line, err)
	}

	rec.SessionDate, err = time.Parse(DateLayout, value(fieldDate))
	if err != nil {
		return csvlab.SessionRecord{}, r.rowError(line, fmt.Errorf("session_date %q is not YYYY-MM-DD", value(fieldDate)))
	}

	result, err := strconv.ParseInt(value(fieldResult), 10, 8)
	if err != nil {
		return csvlab.SessionRecord{}, r.rowError(line, fmt.Errorf("session_result %q is not an integer in -128..127", value(fieldResult)))
	}
	rec.SessionResult = int16(result)

	return rec, nil
}

func validateName(column, v string) error {
	if v == "" {
		return fmt.Errorf("%s is empty", column)
	}
	if n := utf8.RuneCountInString(v); n > MaxNameLength {
		return fmt.Errorf("%s is %d characters, limit is %d", column, n, MaxNameLength)
	}
	return nil
}

func (r *Reader) rowError(line int, err error) error {
	return fmt.Errorf("%s:%d: %v: %w", r.source, line, err, csvlab.ErrInvalidRecord)
}

func wrapParseError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s:%d: %v: %w", source, pe.Line, pe.Err, csvlab.ErrInvalidRecord)
	}
	return fmt.Errorf("%s: %v: %w", source, err, csvlab.ErrInvalidRecord)
}

// ReadAll parses every record from r.
func ReadAll(r io.Reader, source string) ([]csvlab.SessionRecord, error) {
	reader, err := NewReader(r, source)
	if err != nil {
		return nil, err
	}

	var records []csvlab.SessionRecord
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReadFile opens path through fsProvider and parses all records.
// A missing or unreadable file is reported as is, not as an invalid record.
func ReadFile(fsProvider filesystem.FileSystemProvider, path string) ([]csvlab.SessionRecord, error) {
	f, err := fsProvider.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadAll(f, path)
}
