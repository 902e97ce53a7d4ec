package session

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"golang.org/x/net/publicsuffix"
)

// The jar reports browser-session cookies with an end-of-time expiry.
var sessionCookieHorizon = time.Date(9000, 1, 1, 0, 0, 0, 0, time.UTC)

// Jar is the client's cookie jar. Its contents can be exported to and
// restored from a Record; persistence itself belongs to the Store.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
}

func newJar() *Jar {
	j := &Jar{}
	j.inner = freshJar()
	return j
}

func freshJar() *cookiejar.Jar {
	inner, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
		NoPersist:        true,
	})
	if err != nil {
		// Only file loading can fail and NoPersist disables it.
		panic("session: cookie jar: " + err.Error())
	}
	return inner
}

func (j *Jar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

// Has reports whether a live cookie named name would be sent to u.
func (j *Jar) Has(u *url.URL, name string) bool {
	if u == nil {
		return false
	}
	for _, c := range j.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

// Export returns every live cookie in a stable order.
func (j *Jar) Export() []Cookie {
	all := j.current().AllCookies()
	out := make([]Cookie, 0, len(all))
	for _, c := range all {
		entry := Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: strings.TrimPrefix(c.Domain, "."),
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expires.Before(sessionCookieHorizon) {
			entry.Expires = c.Expires.UTC()
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Domain != out[b].Domain {
			return out[a].Domain < out[b].Domain
		}
		if out[a].Path != out[b].Path {
			return out[a].Path < out[b].Path
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Import replaces the jar contents. Cookies the jar would refuse, such as
// expired ones or ones scoped to a public suffix, are dropped.
func (j *Jar) Import(cookies []Cookie) {
	inner := freshJar()
	for _, c := range cookies {
		domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Domain)), ".")
		if c.Name == "" || domain == "" {
			continue
		}
		path := c.Path
		if !strings.HasPrefix(path, "/") {
			path = "/"
		}
		attr := domain
		if net.ParseIP(domain) != nil {
			// The jar refuses a Domain attribute on an IP host.
			attr = ""
		}
		origin := &url.URL{Scheme: "https", Host: domain, Path: path}
		inner.SetCookies(origin, []*http.Cookie{{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  attr,
			Path:    path,
			Expires: c.Expires,
			Secure:  c.Secure,
		}})
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
}

// Len returns the number of live cookies.
func (j *Jar) Len() int {
	return len(j.current().AllCookies())
}
