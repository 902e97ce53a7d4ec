package session

import (
	"bytes"
	"net/http"
)

// Catalog endpoints used by the session lifecycle.
const (
	PrimePath = "/"
	LoginPath = "/action/login.html"
	ProbePath = "/my/account.html"
)

// Cookies the catalog sets only for a logged-in account.
var RequiredCookies = []string{"sid", "uid"}

var (
	authenticatedMarkers = [][]byte{
		[]byte(`href="/action/logout.html"`),
		[]byte(`id="userMenu"`),
	}
	loggedOutMarkers = [][]byte{
		[]byte(`id="loginForm"`),
		[]byte(`href="/action/login.html"`),
	}
	rateLimitMarkers = [][]byte{
		[]byte("too many requests"),
		[]byte("rate limit"),
		[]byte("g-recaptcha"),
		[]byte("are you a robot"),
		[]byte("temporarily blocked"),
	}
)

// IsRateLimited reports whether a response is the catalog's rate-limit page.
func IsRateLimited(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range rateLimitMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func containsAny(body []byte, markers [][]byte) bool {
	for _, marker := range markers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// probeLooksLoggedOut applies the restore rule: a page without authenticated
// markers that does show logged-out markers rejects the cached session.
func probeLooksLoggedOut(body []byte) bool {
	return !containsAny(body, authenticatedMarkers) && containsAny(body, loggedOutMarkers)
}
