package service

import (
	"testing"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name    string
		content domain.Content
		want    string
	}{
		{
			name:    "text parts",
			content: domain.Content{{Type: domain.PartText, Text: " first "}, {Type: domain.PartText, Text: "second"}},
			want:    "first\nsecond",
		},
		{
			name:    "html paragraphs and lists",
			content: domain.Content{{Type: domain.PartHTML, HTML: "<p>Intro   text</p><ul><li>one</li><li>two</li></ul>"}},
			want:    "Intro text\n- one\n- two",
		},
		{
			name:    "scripts are dropped",
			content: domain.Content{{Type: domain.PartHTML, HTML: "<p>keep</p><script>alert(1)</script>"}},
			want:    "keep",
		},
		{
			name:    "inline html without blocks",
			content: domain.Content{{Type: domain.PartHTML, HTML: "<b>bold</b> and <i>italic</i>"}},
			want:    "bold and italic",
		},
		{
			name:    "images are skipped",
			content: domain.Content{{Type: domain.PartImageURL, ImageURL: "https://example.com/x.png"}, {Type: domain.PartText, Text: "caption"}},
			want:    "caption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.content))
		})
	}
}

func TestToOpenAIMessage(t *testing.T) {
	plain := toOpenAIMessage(LLMMessage{Role: domain.RoleAssistant, Content: domain.TextContent("hi")})
	assert.Equal(t, "assistant", plain.Role)
	assert.Equal(t, "hi", plain.Content)
	assert.Empty(t, plain.MultiContent)

	withImage := toOpenAIMessage(LLMMessage{Role: domain.RoleUser, Content: domain.Content{
		{Type: domain.PartText, Text: "what is this"},
		{Type: domain.PartImageURL, ImageURL: "https://example.com/x.png"},
	}})
	assert.Equal(t, "user", withImage.Role)
	assert.Empty(t, withImage.Content)
	if assert.Len(t, withImage.MultiContent, 2) {
		assert.Equal(t, "what is this", withImage.MultiContent[0].Text)
		assert.Equal(t, "https://example.com/x.png", withImage.MultiContent[1].ImageURL.URL)
	}
}
