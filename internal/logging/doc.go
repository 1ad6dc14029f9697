// Package logging builds the slog loggers used by the ramanid CLI and its
// processing packages.
//
// Console output is a compact human-readable layout written to stderr so
// command results on stdout stay machine-readable; JSON output uses the
// standard slog JSON handler with normalized keys. When a log directory is
// configured every run also writes a JSON log file, and files older than the
// retention window are pruned.
package logging
