// Package checksum hashes experiment file content for the file_list table.
//
// Checksums are SHA-256 over the content with line endings normalized, so a
// file re-saved with CRLF line endings keeps its identity while any change to
// a value produces a new checksum.
//
//	calculator := checksum.New()
//	sum := calculator.Calculate(fileContent)
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
