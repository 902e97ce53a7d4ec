// Package workflow drives one media file at a time from its current state
// to embedded chapters, and runs batches of files.
//
// The Processor inspects a file, honours any tracklist reference already
// stored in it according to the configured policy, and otherwise walks an
// explicit phase machine:
//
//	Searching -> Selecting -> Resolving -> Resolved
//	                              |
//	                              +-> Untimed -> Searching (bounded)
//
// Candidates are searched once per file and cached; an untimed tracklist
// sends the machine back for a different selection until the retry budget
// is spent. Resolved chapters are compared with the file's current chapters
// and embedded only when they differ.
//
// The Runner paces files, tags each with run and correlation ids, records
// every outcome in the ledger, and stops the batch only on authentication
// failure or cancellation.
package workflow
