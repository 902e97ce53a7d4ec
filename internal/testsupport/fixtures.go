package testsupport

import (
	"fmt"
	"html"
	"strings"
)

// SearchItem describes one result block in a fake search page.
type SearchItem struct {
	Href     string
	Title    string
	Duration string
	Date     string
}

// SearchResultHTML renders a catalog search page with one block per item.
func SearchResultHTML(items ...SearchItem) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Search | 1001Tracklists</title></head><body><div id=\"middle\">\n")
	for _, item := range items {
		b.WriteString("<div class=\"bItm\">\n")
		fmt.Fprintf(&b, "  <div class=\"bTitle\"><a href=\"%s\">%s</a></div>\n", html.EscapeString(item.Href), html.EscapeString(item.Title))
		b.WriteString("  <div class=\"bCont\">\n")
		if item.Duration != "" {
			fmt.Fprintf(&b, "    <span title=\"play time\"><i class=\"fa fa-clock-o\"></i>%s</span>\n", html.EscapeString(item.Duration))
		}
		if item.Date != "" {
			fmt.Fprintf(&b, "    <span title=\"tracklist date\"><i class=\"fa fa-calendar\"></i>%s</span>\n", html.EscapeString(item.Date))
		}
		b.WriteString("  </div>\n</div>\n")
	}
	b.WriteString("</div></body></html>\n")
	return b.String()
}

// Track describes one entry on a fake tracklist page. A negative Cue renders
// an empty cue value.
type Track struct {
	Name     string
	Cue      int
	Together bool
}

// TracklistHTML renders a tracklist page with track blocks and the cue table.
func TracklistHTML(heading string, tracks ...Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s | 1001Tracklists</title></head><body>\n", html.EscapeString(heading))
	if heading != "" {
		fmt.Fprintf(&b, "<h1 id=\"pageTitle\">%s</h1>\n", html.EscapeString(heading))
	}
	b.WriteString("<div id=\"tlTab\">\n")
	for i, track := range tracks {
		class := "tlpItem"
		if track.Together {
			class += " tlpSubTog"
		}
		fmt.Fprintf(&b, "<div class=\"%s\" id=\"tlp_%d\"><span class=\"trackValue\">%s</span></div>\n", class, i+1, html.EscapeString(track.Name))
	}
	b.WriteString("</div>\n<div id=\"cueTable\">\n")
	for _, track := range tracks {
		value := ""
		if track.Cue >= 0 {
			value = fmt.Sprint(track.Cue)
		}
		fmt.Fprintf(&b, "<input type=\"hidden\" class=\"cueValue\" value=\"%s\">\n", value)
	}
	b.WriteString("</div></body></html>\n")
	return b.String()
}
