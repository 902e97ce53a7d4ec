// Package chapters turns tracklist lines into normalized chapter records and
// decides whether a file already carries the same chapters.
//
// Timestamps are always rendered as HH:MM:SS.mmm. A source with numbered
// tracks but no bracketed times is reported as ErrUntimed so callers can pick
// a different tracklist instead of treating it as a parse failure.
package chapters
