package domain

import "strings"

type AIModel struct {
	ID              string
	Name            string
	Description     string
	PromptPrice     float64 // per 1M tokens
	CompletionPrice float64 // per 1M tokens
	ContextLength   int
	Capabilities    ModelCapabilities
}

type ModelCapabilities struct {
	Vision          bool
	Audio           bool
	ImageGeneration bool
	Files           bool
}

func (m *AIModel) IsFree() bool {
	return (m.PromptPrice == 0 && m.CompletionPrice == 0) || strings.HasSuffix(m.ID, ":free")
}

// Usage is the token accounting reported by the gateway for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}
