package tracklist

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mixchapters/internal/chapters"
)

const titleSuffix = " | 1001Tracklists"

// unidentified tracks are conventionally listed as "ID"
const unknownTrack = "ID"

var looseTimePattern = regexp.MustCompile(`\b(\d{1,2}:\d{2}(?::\d{2})?)\b`)

// HTMLSource scrapes track entries from the tracklist page.
type HTMLSource struct{}

// NewHTMLSource builds an HTMLSource.
func NewHTMLSource() *HTMLSource { return &HTMLSource{} }

func (s *HTMLSource) Strategy() Strategy { return StrategyHTML }

// Fetch parses page.Body. Track blocks are paired by position with the cue
// table; entries played together with the previous track are dropped.
func (s *HTMLSource) Fetch(_ context.Context, page Page) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Content{}, fmt.Errorf("parse tracklist page: %w", err)
	}
	lines := cueTableLines(doc)
	if len(lines) == 0 {
		lines = looseLines(doc)
	}
	if len(lines) == 0 {
		return Content{}, fmt.Errorf("%w: %s", ErrNoTracks, page.URL)
	}
	return Content{
		CanonicalTitle: pageTitle(doc),
		Lines:          lines,
		Strategy:       StrategyHTML,
	}, nil
}

func pageTitle(doc *goquery.Document) string {
	if heading := collapse(doc.Find("h1#pageTitle").First().Text()); heading != "" {
		return heading
	}
	title := collapse(doc.Find("head title").First().Text())
	return strings.TrimSpace(strings.TrimSuffix(title, strings.TrimSpace(titleSuffix)))
}

func cueTableLines(doc *goquery.Document) []string {
	cues := doc.Find("div#cueTable input.cueValue")
	var lines []string
	untimed := 0
	doc.Find("div.tlpItem").Each(func(i int, item *goquery.Selection) {
		if item.HasClass("tlpSubTog") {
			return
		}
		name := collapse(item.Find("span.trackValue").First().Text())
		seconds, timed := cueSeconds(cues.Eq(i).AttrOr("value", ""))
		switch {
		case name == "" && !timed:
			return
		case name == "":
			name = unknownTrack
		}
		if timed {
			lines = append(lines, "["+chapters.FormatSeconds(seconds)+"] "+name)
			return
		}
		untimed++
		lines = append(lines, strconv.Itoa(untimed)+". "+name)
	})
	return lines
}

func cueSeconds(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

// looseLines pairs schema.org track names with the first m:ss or h:mm:ss
// literal that follows them inside the same block.
func looseLines(doc *goquery.Document) []string {
	var lines []string
	untimed := 0
	doc.Find(`[itemprop="tracks"]`).Each(func(_ int, block *goquery.Selection) {
		nameNode := block.Find(`[itemprop="name"]`).First()
		name := collapse(nameNode.AttrOr("content", ""))
		if name == "" {
			name = collapse(nameNode.Text())
		}
		text := collapse(block.Text())
		rest := text
		if name != "" {
			if idx := strings.Index(text, name); idx >= 0 {
				rest = text[idx+len(name):]
			}
		}
		timestamp := ""
		if m := looseTimePattern.FindStringSubmatch(rest); m != nil {
			timestamp = m[1]
		}
		switch {
		case name == "" && timestamp == "":
			return
		case name == "":
			name = unknownTrack
		}
		if timestamp != "" {
			lines = append(lines, "["+timestamp+"] "+name)
			return
		}
		untimed++
		lines = append(lines, strconv.Itoa(untimed)+". "+name)
	})
	return lines
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
