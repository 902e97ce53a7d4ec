// Package ledger records the outcome of every file mixchapters processes in a
// small SQLite database so later invocations (and the history command) can see
// what was embedded, skipped, or left for review.
//
// The database is an append-only log keyed by run id. Schema changes bump
// schemaVersion; users delete the database to adopt a new schema.
package ledger
