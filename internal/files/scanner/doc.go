// Package scanner discovers experiment CSV files for the file_list table.
//
// Only regular files directly inside the source directory whose names end in
// ".csv" (case-sensitive) are listed. Each one is fingerprinted with a
// checksum and size so later runs can tell when a listed file changed.
//
// The scanner works against filesystem.FileSystemProvider, so tests run it
// over an in-memory tree.
package scanner
