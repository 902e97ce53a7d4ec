// Package preflight provides readiness checks for the media tools, local
// directories and remote services mixchapters depends on.
//
// These checks run in two contexts:
//   - The tag command calls RunAll before a batch. A failed check stops the
//     batch before any file is probed.
//   - The doctor command adds the network checks (CheckCatalog,
//     CheckSessionStore) and prints every result.
package preflight
