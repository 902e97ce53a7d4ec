package mkvtool

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"mixchapters/internal/chapters"
	"mixchapters/internal/language"
	"mixchapters/internal/metadata"
)

const chaptersDoctype = `<!DOCTYPE Chapters SYSTEM "matroskachapters.dtd">` + "\n"
const tagsDoctype = `<!DOCTYPE Tags SYSTEM "matroskatags.dtd">` + "\n"

type chaptersDoc struct {
	XMLName xml.Name `xml:"Chapters"`
	Edition edition  `xml:"EditionEntry"`
}

type edition struct {
	UID     uint64 `xml:"EditionUID"`
	Default int    `xml:"EditionFlagDefault"`
	Atoms   []atom `xml:"ChapterAtom"`
}

type atom struct {
	UID     uint64  `xml:"ChapterUID"`
	Start   string  `xml:"ChapterTimeStart"`
	Display display `xml:"ChapterDisplay"`
}

type display struct {
	String   string `xml:"ChapterString"`
	Language string `xml:"ChapterLanguage"`
	IETF     string `xml:"ChapLanguageIETF,omitempty"`
}

type tagsDoc struct {
	XMLName xml.Name `xml:"Tags"`
	Tag     tag      `xml:"Tag"`
}

type tag struct {
	Targets struct{} `xml:"Targets"`
	Simple  []simple `xml:"Simple"`
}

type simple struct {
	Name   string `xml:"Name"`
	String string `xml:"String"`
}

// UIDFunc returns a non-zero Matroska UID.
type UIDFunc func() uint64

// RandomUID derives a UID from a random UUID.
func RandomUID() uint64 {
	id := uuid.New()
	if v := binary.BigEndian.Uint64(id[:8]); v != 0 {
		return v
	}
	return 1
}

// ChaptersXML renders a single default edition holding chs in order.
func ChaptersXML(chs []chapters.Chapter, uid UIDFunc) ([]byte, error) {
	if uid == nil {
		uid = RandomUID
	}
	doc := chaptersDoc{Edition: edition{UID: uid(), Default: 1}}
	for _, ch := range chs {
		doc.Edition.Atoms = append(doc.Edition.Atoms, atom{
			UID:   uid(),
			Start: ch.Timestamp,
			Display: display{
				String:   ch.Title,
				Language: language.ToISO3(ch.Language),
				IETF:     ietf(ch.Language),
			},
		})
	}
	return render(chaptersDoctype, doc)
}

// TagsXML renders one global tag set holding the stored reference plus
// preserved tags, sorted by name after the reference. Empty reference
// fields are omitted.
func TagsXML(stored metadata.Stored, preserve map[string]string) ([]byte, error) {
	doc := tagsDoc{}
	if stored.URL != "" {
		doc.Tag.Simple = append(doc.Tag.Simple, simple{Name: metadata.TagURL, String: stored.URL})
	}
	if stored.Title != "" {
		doc.Tag.Simple = append(doc.Tag.Simple, simple{Name: metadata.TagTitle, String: stored.Title})
	}
	names := make([]string, 0, len(preserve))
	for name := range preserve {
		if name == metadata.TagURL || name == metadata.TagTitle {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Tag.Simple = append(doc.Tag.Simple, simple{Name: name, String: preserve[name]})
	}
	return render(tagsDoctype, doc)
}

func ietf(code string) string {
	if tag := language.ToBCP47(code); tag != language.Undetermined {
		return tag
	}
	return ""
}

func render(doctype string, doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(doctype)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
