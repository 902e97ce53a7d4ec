package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Fake catalog credentials and cookie values.
const (
	CatalogEmail    = "dj@example.com"
	CatalogPassword = "hunter2"
	catalogSID      = "sid-7f3a"
	catalogUID      = "4711"
)

const rateLimitPage = "<html><body><h1>Too Many Requests</h1><p>Please slow down.</p></body></html>"

// ExportReply is the JSON envelope returned for one tracklist id.
type ExportReply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"data,omitempty"`
}

// ExportOK builds a successful export reply.
func ExportOK(title string, lines ...string) ExportReply {
	reply := ExportReply{Success: true}
	reply.Data = &struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}{Title: title, Text: strings.Join(lines, "\n")}
	return reply
}

// Catalog is an httptest fake of the tracklist catalog.
type Catalog struct {
	Server *httptest.Server

	mu          sync.Mutex
	rateLimited bool
	search      string
	pages       map[string]string
	redirects   map[string]string
	exports     map[string]ExportReply
	searches    []url.Values
	requests    []string
	exportRefs  []string
	logins      int
}

// NewCatalog starts a fake catalog and closes it with the test.
func NewCatalog(t testing.TB) *Catalog {
	t.Helper()
	c := &Catalog{
		pages:     make(map[string]string),
		redirects: make(map[string]string),
		exports:   make(map[string]ExportReply),
	}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Server.Close)
	return c
}

// URL returns the catalog root.
func (c *Catalog) URL() string { return c.Server.URL }

// SetRateLimited makes every response the rate-limit page.
func (c *Catalog) SetRateLimited(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimited = v
}

// SetSearchHTML sets the body returned for searches.
func (c *Catalog) SetSearchHTML(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = body
}

// SetPage serves body at path.
func (c *Catalog) SetPage(path, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[path] = body
}

// SetRedirect answers from with a 301 to to.
func (c *Catalog) SetRedirect(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redirects[from] = to
}

// SetExport sets the export reply for a tracklist id.
func (c *Catalog) SetExport(id string, reply ExportReply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exports[id] = reply
}

// Searches returns the query parameters of every search request.
func (c *Catalog) Searches() []url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]url.Values(nil), c.searches...)
}

// Requests returns "METHOD path" for every request served.
func (c *Catalog) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

// ExportReferers returns the Referer of every export request.
func (c *Catalog) ExportReferers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.exportRefs...)
}

// Logins returns the number of login posts received.
func (c *Catalog) Logins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logins
}

func (c *Catalog) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r.Method+" "+r.URL.Path)

	if c.rateLimited {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(rateLimitPage))
		return
	}

	switch {
	case r.URL.Path == "/":
		http.SetCookie(w, &http.Cookie{Name: "guest", Value: "1", Path: "/"})
		writeHTML(w, `<html><body><a href="/action/login.html">Login</a></body></html>`)
	case r.URL.Path == "/action/login.html" && r.Method == http.MethodPost:
		c.logins++
		_ = r.ParseForm()
		if r.PostForm.Get("email") == CatalogEmail && r.PostForm.Get("password") == CatalogPassword {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: catalogSID, Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "uid", Value: catalogUID, Path: "/"})
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/?login=failed", http.StatusFound)
	case r.URL.Path == "/my/account.html":
		if c.loggedIn(r) {
			writeHTML(w, `<html><body><div id="userMenu"><a href="/action/logout.html">Logout</a></div></body></html>`)
			return
		}
		writeHTML(w, `<html><body><form id="loginForm"></form></body></html>`)
	case r.URL.Path == "/search/result.php":
		_ = r.ParseForm()
		c.searches = append(c.searches, r.Form)
		writeHTML(w, c.search)
	case r.URL.Path == "/ajax/export_tracklist.php":
		c.exportRefs = append(c.exportRefs, r.Referer())
		w.Header().Set("Content-Type", "application/json")
		if !c.loggedIn(r) {
			_ = json.NewEncoder(w).Encode(ExportReply{Success: false, Message: "login required"})
			return
		}
		_ = r.ParseForm()
		reply, ok := c.exports[r.PostForm.Get("id")]
		if !ok {
			reply = ExportReply{Success: false, Message: "tracklist not found"}
		}
		_ = json.NewEncoder(w).Encode(reply)
	default:
		if to, ok := c.redirects[r.URL.Path]; ok {
			http.Redirect(w, r, to, http.StatusMovedPermanently)
			return
		}
		if body, ok := c.pages[r.URL.Path]; ok {
			writeHTML(w, body)
			return
		}
		http.NotFound(w, r)
	}
}

func (c *Catalog) loggedIn(r *http.Request) bool {
	sid, err := r.Cookie("sid")
	if err != nil || sid.Value != catalogSID {
		return false
	}
	uid, err := r.Cookie("uid")
	return err == nil && uid.Value == catalogUID
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
