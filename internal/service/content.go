package service

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/mindchat/internal/domain"
)

// PlainText flattens content to text. HTML parts from the rich editor are
// stripped to their text; images are dropped.
func PlainText(c domain.Content) string {
	var parts []string
	for _, p := range c {
		switch p.Type {
		case domain.PartText:
			if s := strings.TrimSpace(p.Text); s != "" {
				parts = append(parts, s)
			}
		case domain.PartHTML:
			if s := htmlToText(p.HTML); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style").Remove()

	var lines []string
	blocks := doc.Find("p, li, h1, h2, h3, h4, h5, h6, pre, blockquote")
	if blocks.Length() == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	blocks.Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("p, li, pre, blockquote").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if s.Is("pre") {
			if text != "" {
				lines = append(lines, text)
			}
			return
		}
		if text = strings.Join(strings.Fields(text), " "); text != "" {
			if s.Is("li") {
				text = "- " + text
			}
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n")
}

func hasImages(c domain.Content) bool {
	for _, p := range c {
		if p.Type == domain.PartImageURL && p.ImageURL != "" {
			return true
		}
	}
	return false
}
