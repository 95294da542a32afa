package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

const titlePrompt = "Write a title of at most six words for a conversation that starts with the user message below. " +
	"Reply with the title only, no quotes and no trailing punctuation."

const defaultTitle = "New chat"

// TitleGenerator names new chats from their first user message.
type TitleGenerator struct {
	llm   LLMGateway
	model string
}

func NewTitleGenerator(llm LLMGateway, model string) *TitleGenerator {
	return &TitleGenerator{llm: llm, model: model}
}

// Generate never fails: short or repetitive input is used verbatim and any
// model error falls back to the truncated text.
func (g *TitleGenerator) Generate(ctx context.Context, first domain.Content) string {
	text := strings.Join(strings.Fields(PlainText(first)), " ")
	fallback := FallbackTitle(first)
	if !worthAskingModel(text) || g.llm == nil || g.model == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, config.TitleTimeout)
	defer cancel()

	out, err := g.llm.Complete(ctx, LLMRequest{
		Model:        g.model,
		SystemPrompt: titlePrompt,
		Messages:     []LLMMessage{{Role: domain.RoleUser, Content: domain.TextContent(text)}},
		MaxTokens:    32,
	})
	if err != nil {
		slog.Warn("title generation failed", "error", err, "model", g.model)
		return fallback
	}

	title := cleanTitle(out)
	if title == "" {
		return fallback
	}
	return title
}

// FallbackTitle is the first message truncated verbatim.
func FallbackTitle(first domain.Content) string {
	title := truncateTitle(strings.Join(strings.Fields(PlainText(first)), " "))
	if title == "" {
		return defaultTitle
	}
	return title
}

func worthAskingModel(text string) bool {
	if utf8.RuneCountInString(text) <= config.ShortTitleInputLen {
		return false
	}
	return shannonEntropy(text) >= config.MinTitleInputEntropy
}

// shannonEntropy is measured in bits per rune.
func shannonEntropy(s string) float64 {
	counts := map[rune]int{}
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	if n == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "Title:")
	s = strings.Trim(s, " \t\"'`*#")
	s = strings.TrimRight(s, ".!")
	return truncateTitle(s)
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= config.MaxTitleLen {
		return s
	}
	return strings.TrimSpace(string(r[:config.MaxTitleLen-1])) + "…"
}
