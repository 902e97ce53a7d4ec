// Package tracklist fetches the content of a chosen catalog tracklist.
//
// Two Source variants exist. ExportSource asks the catalog's export endpoint
// for the plain-text tracklist and needs an authenticated session.
// HTMLSource scrapes the tracklist page itself. The Resolver fetches the page
// once, tries the export when the session allows it, and moves to the HTML
// source when the export reports failure. Both produce the same Content:
// "[timestamp] title" lines, or "<n>. title" lines for untimed tracks.
package tracklist
