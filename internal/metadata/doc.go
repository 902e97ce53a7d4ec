// Package metadata round-trips the chosen tracklist reference through a
// media file's global tags and decides, per policy, whether a stored
// reference short-circuits the search.
package metadata
