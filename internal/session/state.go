package session

import (
	"errors"
	"time"
)

var (
	// ErrAuthentication means the login did not yield both required session cookies.
	ErrAuthentication = errors.New("catalog authentication failed")
	// ErrRateLimited means the catalog answered with a rate-limit page.
	ErrRateLimited = errors.New("catalog rate limit detected")
	// ErrSessionInactive means a request was issued before Ensure succeeded or after invalidation.
	ErrSessionInactive = errors.New("catalog session is not active")
	// ErrNoRecord is returned by stores that hold no session.
	ErrNoRecord = errors.New("no persisted session")
)

// State is the lifecycle position of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateFresh
	StateActive
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateFresh:
		return "fresh"
	case StateActive:
		return "active"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Cookie is the persisted form of one catalog cookie. A zero Expires marks a
// browser-session cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
}

// Record is the persisted session cache entry.
type Record struct {
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
	Cookies   []Cookie  `json:"cookies"`
}

// Expired reports whether any cookie carries an expiry before now.
func (r Record) Expired(now time.Time) bool {
	for _, c := range r.Cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			return true
		}
	}
	return false
}

// EarliestExpiry returns the soonest cookie expiry, or false when every
// cookie lives for the browser session only.
func (r Record) EarliestExpiry() (time.Time, bool) {
	var earliest time.Time
	for _, c := range r.Cookies {
		if c.Expires.IsZero() {
			continue
		}
		if earliest.IsZero() || c.Expires.Before(earliest) {
			earliest = c.Expires
		}
	}
	return earliest, !earliest.IsZero()
}

// Status is a read-only snapshot of the manager for display.
type Status struct {
	State       State
	Identity    string
	Anonymous   bool
	ValidatedAt time.Time
	Cookies     int
}
