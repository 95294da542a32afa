package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Content
	}{
		{name: "bare string", in: `"hello"`, want: TextContent("hello")},
		{name: "parts", in: `[{"type":"text","text":"a"},{"type":"image_url","image_url":"https://x/y.png"}]`, want: Content{
			{Type: PartText, Text: "a"},
			{Type: PartImageURL, ImageURL: "https://x/y.png"},
		}},
		{name: "null", in: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c)
		})
	}

	var c Content
	assert.Error(t, json.Unmarshal([]byte(`{"type":"text"}`), &c))
}

func TestContentMarshalNil(t *testing.T) {
	out, err := json.Marshal(struct {
		Content Content `json:"content"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[]}`, string(out))
}

func TestContentValidate(t *testing.T) {
	assert.NoError(t, TextContent("hi").Validate())
	assert.NoError(t, Content{{Type: PartHTML, HTML: "<p>x</p>"}}.Validate())
	assert.NoError(t, Content{{Type: PartImageURL, ImageURL: "https://x/y.png"}}.Validate())

	assert.ErrorIs(t, Content(nil).Validate(), ErrEmptyContent)
	assert.ErrorIs(t, TextContent("  \n").Validate(), ErrEmptyContent)
	assert.ErrorIs(t, Content{{Type: "audio", Text: "x"}}.Validate(), ErrUnknownPart)
	assert.ErrorIs(t, Content{{Type: "audio", Text: "x"}}.Validate(), ErrInvalidRequest)
}

func TestVersionListCurrentIndex(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	list := &VersionList{Options: []VersionOption{{BranchID: a}, {BranchID: b}}}

	assert.Equal(t, 0, list.CurrentIndex(a))
	assert.Equal(t, 1, list.CurrentIndex(b))
	assert.Equal(t, 0, list.CurrentIndex(c))
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrChatNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrMessageNotOnBranch, ErrNotFound)
	assert.ErrorIs(t, ErrMessageNotOnBranch, ErrInvalidState)
	assert.ErrorIs(t, ErrEmptyContent, ErrInvalidRequest)
}
