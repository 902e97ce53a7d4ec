// Package language normalizes the chapter language setting into the codes
// Matroska chapter displays carry: a legacy ISO 639-2 code and a BCP 47 tag.
package language
