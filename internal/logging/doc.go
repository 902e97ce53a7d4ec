// Package logging builds the slog loggers used by every mixchapters command.
//
// Console output is a single human-readable line per record; the JSON log file
// under the log directory keeps debug detail and is what the logs command
// reads back. WithContext tags records with the file, stage, run and
// correlation values carried on a context.
package logging
