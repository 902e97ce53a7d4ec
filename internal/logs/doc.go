// Package logs reads the JSON run log written next to the console output.
//
// Tail returns the last matching records or follows the file from an offset,
// with bounded memory. Filters narrow records to one batch run, one media
// file or a minimum level, so a ledger entry can be traced back to the log
// lines that produced it.
package logs
