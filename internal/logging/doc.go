// Package logging implements csvlab.Logger: ConsoleLogger for the CLI,
// NullLogger to discard output, and Recorder to inspect messages in tests.
package logging
