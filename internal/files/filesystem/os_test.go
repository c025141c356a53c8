package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "session.csv")
	expected := "user_name,subject_name,session_date,session_result\n"
	os.WriteFile(filePath, []byte(expected), 0644)

	fs := NewOSFileSystem()

	data, err := fs.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != expected {
		t.Errorf("ReadFile() = %q, want %q", string(data), expected)
	}
}

func TestOSFileSystem_ReadFile_Nonexistent(t *testing.T) {
	p := NewOSFileSystem()

	_, err := p.ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(nonexistent) error = %v, want fs.ErrNotExist", err)
	}
}

func TestOSFileSystem_Open(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.csv")
	os.WriteFile(filePath, []byte("x"), 0644)

	rc, err := NewOSFileSystem().Open(filePath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "x" {
		t.Errorf("Open() content = %q, want %q", data, "x")
	}
}

func TestOSFileSystem_ReadDir(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0644)
	os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0644)
	os.Mkdir(filepath.Join(dir, "nested"), 0755)

	entries, err := NewOSFileSystem().ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadDir() returned %d entries, want 3", len(entries))
	}
	if entries[0].Name() != "a.csv" || entries[1].Name() != "b.csv" {
		t.Errorf("ReadDir() not sorted: %s, %s", entries[0].Name(), entries[1].Name())
	}
	if !entries[2].IsDir() {
		t.Errorf("ReadDir() entry %s should be a directory", entries[2].Name())
	}
}

func TestOSFileSystem_Stat(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "test.csv")
	os.WriteFile(filePath, []byte("12345"), 0644)

	info, err := NewOSFileSystem().Stat(filePath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 5 {
		t.Errorf("Stat().Size() = %d, want 5", info.Size())
	}
}
