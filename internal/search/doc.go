// Package search queries the catalog's result page and ranks candidates
// against the facets of a free-text query.
//
// Each candidate's score is the sum of independent sub-scores (duration,
// abbreviation, alias, keyword coverage, event pattern, year, recency) whose
// weights come from the [scoring] configuration section. Candidates that
// match no query keyword are discarded; when the query named the event by
// an abbreviation or alias, weak single-keyword coincidences are discarded
// too. The survivors are sorted by score, keeping discovery order for ties.
//
// A rate-limited search is not an error: the session manager has already
// invalidated the session and the engine returns an empty list.
package search
