// Package textutil holds small text helpers shared by the search, CLI and
// container packages: diacritic-insensitive folding, query derivation from
// file names, and token sanitization.
package textutil
