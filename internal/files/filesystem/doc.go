// Package filesystem provides a small filesystem abstraction so discovery and
// CSV parsing can run against an in-memory tree in tests.
//
// Implementations:
//   - OSFileSystem: production implementation backed by the os package
//   - MemoryFileSystem: in-memory implementation for testing
package filesystem
