package session

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestJarScopesAndExpiry(t *testing.T) {
	now := time.Now()
	jar := newJar()
	site, _ := url.Parse("https://www.example.com/login/form")

	jar.SetCookies(site, []*http.Cookie{
		{Name: "sid", Value: "a", Path: "/"},
		{Name: "scoped", Value: "b"},
		{Name: "wide", Value: "c", Domain: ".example.com", Path: "/", MaxAge: 3600},
		{Name: "gone", Value: "d", Path: "/", Expires: now.Add(-time.Minute)},
		{Name: "foreign", Value: "e", Domain: "other.org", Path: "/"},
	})

	root, _ := url.Parse("https://www.example.com/")
	if !jar.Has(root, "sid") || !jar.Has(root, "wide") {
		t.Fatal("expected sid and wide cookies for root")
	}
	if jar.Has(root, "scoped") {
		t.Fatal("cookie without path must default to the request directory")
	}
	if jar.Has(root, "gone") || jar.Has(root, "foreign") {
		t.Fatal("expired and foreign cookies must be ignored")
	}
	sub, _ := url.Parse("https://cdn.example.com/")
	if jar.Has(sub, "sid") {
		t.Fatal("host-only cookie leaked to subdomain")
	}
	if !jar.Has(sub, "wide") {
		t.Fatal("domain cookie should reach subdomain")
	}

	exported := jar.Export()
	if len(exported) != 3 || jar.Len() != 3 {
		t.Fatalf("expected 3 exported cookies, got %+v", exported)
	}
	for _, c := range exported {
		switch c.Name {
		case "wide":
			if c.Domain != "example.com" || c.Expires.IsZero() {
				t.Fatalf("wide cookie lost its scope or expiry: %+v", c)
			}
		case "sid":
			if !c.Expires.IsZero() {
				t.Fatalf("browser-session cookie exported with expiry %v", c.Expires)
			}
		}
	}

	restored := newJar()
	restored.Import(exported)
	if !restored.Has(root, "sid") || !restored.Has(sub, "wide") {
		t.Fatal("import lost cookies")
	}
	if restored.Len() != 3 {
		t.Fatalf("restored %d cookies, want 3", restored.Len())
	}

	restored.Import([]Cookie{
		{Name: "sid", Value: "old", Domain: "www.example.com", Path: "/", Expires: now.Add(-time.Hour)},
	})
	if restored.Has(root, "sid") || restored.Len() != 0 {
		t.Fatal("import must replace contents and drop expired cookies")
	}

	jar.SetCookies(root, []*http.Cookie{{Name: "sid", Path: "/", MaxAge: -1}})
	if jar.Has(root, "sid") {
		t.Fatal("negative max-age must delete cookie")
	}
}

func TestJarRejectsPublicSuffixDomains(t *testing.T) {
	jar := newJar()
	site, _ := url.Parse("https://www.example.co.uk/")
	jar.SetCookies(site, []*http.Cookie{
		{Name: "suffix", Value: "x", Domain: "co.uk", Path: "/"},
		{Name: "tld", Value: "y", Domain: ".uk", Path: "/"},
		{Name: "own", Value: "z", Domain: "example.co.uk", Path: "/"},
	})

	other, _ := url.Parse("https://www.another.co.uk/")
	if jar.Has(other, "suffix") || jar.Has(other, "tld") {
		t.Fatal("cookie scoped to a public suffix crossed sites")
	}
	if !jar.Has(site, "own") {
		t.Fatal("registrable domain cookie should be kept")
	}

	restored := newJar()
	restored.Import([]Cookie{{Name: "suffix", Value: "x", Domain: "co.uk", Path: "/"}})
	if restored.Has(other, "suffix") {
		t.Fatal("import accepted a public-suffix cookie")
	}
}

func TestJarImportsIPHostCookies(t *testing.T) {
	jar := newJar()
	jar.Import([]Cookie{{Name: "sid", Value: "x", Domain: "127.0.0.1", Path: "/"}})
	local, _ := url.Parse("http://127.0.0.1:8080/tracklist/abc/")
	if !jar.Has(local, "sid") {
		t.Fatal("cookie for an IP host should be restored as host-only")
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(http.StatusTooManyRequests, nil) {
		t.Fatal("429 is a rate limit")
	}
	if !IsRateLimited(200, []byte("<h1>Too Many Requests</h1>")) {
		t.Fatal("body marker should match case-insensitively")
	}
	if IsRateLimited(200, []byte("<div class=\"bItm\">ok</div>")) {
		t.Fatal("normal page flagged")
	}
}

func TestRecordExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := Record{Cookies: []Cookie{
		{Name: "a", Expires: now.Add(time.Hour)},
		{Name: "b"},
		{Name: "c", Expires: now.Add(30 * time.Minute)},
	}}
	if rec.Expired(now) {
		t.Fatal("record should be live")
	}
	earliest, ok := rec.EarliestExpiry()
	if !ok || !earliest.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("earliest = %v %v", earliest, ok)
	}
	if !rec.Expired(now.Add(45 * time.Minute)) {
		t.Fatal("record should be expired once one cookie passes")
	}
}
