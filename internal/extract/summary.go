// Package extract pulls a compact summary out of the rendered HTML of a
// captured page.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Summary describes the rendered document at capture time.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	Lang        string `json:"lang,omitempty"`

	Images  int `json:"images"`
	Links   int `json:"links"`
	Scripts int `json:"scripts"`
	Forms   int `json:"forms"`

	// Text is the visible text with whitespace collapsed.
	Text  string `json:"-"`
	Words int    `json:"words"`
}

// Summarize parses html and collects the summary fields.
func Summarize(html string) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	s := &Summary{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: metaContent(doc, "description"),
		Canonical:   attr(doc.Find(`link[rel="canonical"]`).First(), "href"),
		Lang:        attr(doc.Find("html").First(), "lang"),
		Images:      doc.Find("img").Length(),
		Links:       doc.Find("a[href]").Length(),
		Scripts:     doc.Find("script").Length(),
		Forms:       doc.Find("form").Length(),
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	var text strings.Builder
	collectText(body, &text)

	words := strings.Fields(text.String())
	s.Text = strings.Join(words, " ")
	s.Words = len(words)
	return s, nil
}

// collectText appends the text nodes under sel in document order, each
// followed by a space so adjacent elements never run together.
func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
			b.WriteByte(' ')
		case "script", "style", "noscript", "template", "#comment":
		default:
			collectText(c, b)
		}
	})
}

// metaContent finds <meta name=...> case-insensitively, falling back to the
// OpenGraph property of the same name.
func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(attr(sel, "name"), name) {
			content = attr(sel, "content")
			return false
		}
		return true
	})
	if content == "" {
		content = attr(doc.Find(`meta[property="og:`+name+`"]`).First(), "content")
	}
	return content
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}
