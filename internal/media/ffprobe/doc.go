// Package ffprobe reads what a recording already carries: its duration, its
// embedded chapters and its global tags.
//
// Inspect runs ffprobe with format, stream and chapter output and decodes the
// JSON. Chapter starts come back as HH:MM:SS.nnnnnnnnn, the precision the
// chapter comparison expects. Tag lookups ignore case.
package ffprobe
