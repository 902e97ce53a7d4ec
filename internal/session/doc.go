// Package session owns the authenticated connection to the tracklist catalog.
//
// Manager is the only component that reads or writes cookies. It restores a
// persisted session when the cached record still matches the configured
// account, otherwise it primes an anonymous visit and logs in. Every request
// made through the manager is checked for rate-limit pages; a hit taints the
// session, purges the persisted record, and makes later requests fail fast
// with ErrSessionInactive until Ensure re-establishes it.
//
// Records are kept in a Store: a locked JSON file by default, or Redis when
// several hosts share one catalog account.
package session
