package search

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tracklistHrefPattern = regexp.MustCompile(`^/tracklist/([a-z0-9]+)/`)

var paginationLabels = map[string]struct{}{
	"next":     {},
	"previous": {},
	"prev":     {},
	"first":    {},
	"last":     {},
	"more":     {},
	"»":        {},
	"«":        {},
	"...":      {},
	"…":        {},
}

// parseResults extracts candidates from a search result page in page order.
// resolve turns a relative catalog link into an absolute URL.
func parseResults(body []byte, resolve func(string) (*url.URL, error)) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results []Result
	seen := make(map[string]struct{})
	doc.Find("div.bItm").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("div.bTitle a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		id := tracklistID(href)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		title := strings.Join(strings.Fields(link.Text()), " ")
		if isPaginationLabel(title) {
			return
		}
		target, err := resolve(href)
		if err != nil {
			return
		}
		seen[id] = struct{}{}

		result := Result{
			ID:    id,
			Title: title,
			URL:   target.String(),
			Date:  strings.TrimSpace(item.Find(`[title="tracklist date"]`).First().Text()),
		}
		durationText := strings.TrimSpace(item.Find(`[title="play time"]`).First().Text())
		result.DurationMinutes, result.DurationKnown = ParseDuration(durationText)
		results = append(results, result)
	})
	return results, nil
}

func tracklistID(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	m := tracklistHrefPattern.FindStringSubmatch(parsed.Path)
	if m == nil {
		return ""
	}
	return m[1]
}

func isPaginationLabel(title string) bool {
	if title == "" {
		return true
	}
	_, ok := paginationLabels[strings.ToLower(title)]
	return ok
}
