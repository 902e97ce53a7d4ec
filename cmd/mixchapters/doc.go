// Package main hosts the mixchapters CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands files to
// the workflow runner, exposes catalog search for manual inspection, and
// manages the cached catalog session and the outcome ledger. Heavy lifting
// lives in the internal packages; commands here only wire them together.
package main
