package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/csvlab/internal/checksum"
	"github.com/vvka-141/csvlab/internal/files/filesystem"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// ScanResult holds the CSV files found in a source directory, sorted by path.
type ScanResult struct {
	Files []csvlab.FileRef

	// Skipped lists entries ignored because they are directories or do not
	// carry the CSV extension. Useful for verbose output.
	Skipped []string
}

// Paths returns the file_list keys in scan order.
func (r ScanResult) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// Scanner discovers CSV files in a directory.
// Scanner is safe for concurrent use as long as the calculator and
// fsProvider are.
type Scanner struct {
	calculator checksum.Calculator
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a new file scanner with the given checksum calculator.
// Uses OS filesystem by default.
// Panics if calculator is nil.
func NewScanner(calculator checksum.Calculator) *Scanner {
	if calculator == nil {
		panic("calculator cannot be nil")
	}
	return &Scanner{
		calculator: calculator,
		fsProvider: filesystem.NewOSFileSystem(),
	}
}

// NewScannerWithFS creates a new file scanner with a custom filesystem provider.
// Panics if calculator or fsProvider is nil.
func NewScannerWithFS(calculator checksum.Calculator, fsProvider filesystem.FileSystemProvider) *Scanner {
	if calculator == nil {
		panic("calculator cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{
		calculator: calculator,
		fsProvider: fsProvider,
	}
}

// FileSystem returns the provider the scanner reads from, so the CSV
// reader can open discovered paths through the same view.
func (s *Scanner) FileSystem() filesystem.FileSystemProvider {
	return s.fsProvider
}

// ScanDirectory lists the CSV files directly inside sourcePath.
//
// A file's key is sourcePath joined with its name, using forward slashes.
// Returns an error wrapping csvlab.ErrNoSourceFiles when the directory
// cannot be read or contains no CSV files.
func (s *Scanner) ScanDirectory(sourcePath string) (ScanResult, error) {
	entries, err := s.fsProvider.ReadDir(sourcePath)
	if err != nil {
		return ScanResult{}, fmt.Errorf("source directory %s: %w: %w", sourcePath, csvlab.ErrNoSourceFiles, err)
	}

	var result ScanResult
	for _, info := range entries {
		name := info.Name()
		if info.IsDir() || !IsSourceFile(name) {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		ref, err := s.Fingerprint(joinKey(sourcePath, name))
		if err != nil {
			return ScanResult{}, err
		}
		result.Files = append(result.Files, ref)
	}

	if len(result.Files) == 0 {
		return result, fmt.Errorf("no %s files in %s: %w", csvlab.SourceFileExtension, sourcePath, csvlab.ErrNoSourceFiles)
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	return result, nil
}

// Fingerprint reads the file at path and returns its file_list row.
func (s *Scanner) Fingerprint(path string) (csvlab.FileRef, error) {
	content, err := s.fsProvider.ReadFile(path)
	if err != nil {
		return csvlab.FileRef{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return csvlab.FileRef{
		Path:      path,
		Checksum:  s.calculator.Calculate(content),
		SizeBytes: int64(len(content)),
	}, nil
}

// IsSourceFile reports whether name carries the CSV extension.
// The match is case-sensitive: "DATA.CSV" is not a source file.
func IsSourceFile(name string) bool {
	return strings.HasSuffix(name, csvlab.SourceFileExtension) && len(name) > len(csvlab.SourceFileExtension)
}

func joinKey(dir, name string) string {
	return filepath.ToSlash(filepath.Join(dir, name))
}
