package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type PartType string

const (
	PartText     PartType = "text"
	PartHTML     PartType = "html"
	PartImageURL PartType = "image_url"
)

// Part is one element of message content. Only the field matching Type is set.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	HTML     string   `json:"html,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Content is the rich payload of a message or message version. On the wire a
// bare JSON string is accepted as a single text part.
type Content []Part

func TextContent(text string) Content {
	return Content{{Type: PartText, Text: text}}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Part(c))
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	}
	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	*c = parts
	return nil
}

func (c Content) Validate() error {
	if c.IsEmpty() {
		return ErrEmptyContent
	}
	for _, p := range c {
		switch p.Type {
		case PartText, PartHTML, PartImageURL:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownPart, p.Type)
		}
	}
	return nil
}

// IsEmpty reports whether the content carries no text, markup or image.
func (c Content) IsEmpty() bool {
	for _, p := range c {
		if strings.TrimSpace(p.Text) != "" || strings.TrimSpace(p.HTML) != "" || p.ImageURL != "" {
			return false
		}
	}
	return true
}
