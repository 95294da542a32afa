package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

// OpenRouterService talks to OpenRouter's OpenAI-compatible API for chat and
// to its /models endpoint for the priced catalogue.
type OpenRouterService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	client     *openai.Client
	cache      *ModelsCache
}

func NewOpenRouterService(apiKey, baseURL string) *OpenRouterService {
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: config.StreamTimeout}

	return &OpenRouterService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		client:     openai.NewClientWithConfig(cfg),
		cache:      NewModelsCache(config.ModelCacheDuration),
	}
}

func (s *OpenRouterService) ListModels(ctx context.Context) ([]domain.AIModel, error) {
	if cached := s.cache.Get(); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch models: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch models: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Pricing     struct {
				Prompt     string `json:"prompt"`
				Completion string `json:"completion"`
			} `json:"pricing"`
			ContextLength int `json:"context_length"`
			TopProvider   struct {
				ContextLength int `json:"context_length"`
			} `json:"top_provider"`
			Architecture struct {
				Modality string `json:"modality"`
			} `json:"architecture"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}

	models := make([]domain.AIModel, 0, len(result.Data))
	for _, m := range result.Data {
		var promptPrice, completionPrice float64
		fmt.Sscanf(m.Pricing.Prompt, "%f", &promptPrice)
		fmt.Sscanf(m.Pricing.Completion, "%f", &completionPrice)

		// Prices from OpenRouter are per token, convert to per 1M tokens
		promptPrice *= 1_000_000
		completionPrice *= 1_000_000

		ctxLen := m.ContextLength
		if m.TopProvider.ContextLength > 0 {
			ctxLen = m.TopProvider.ContextLength
		}

		models = append(models, domain.AIModel{
			ID:              m.ID,
			Name:            m.Name,
			Description:     m.Description,
			PromptPrice:     promptPrice,
			CompletionPrice: completionPrice,
			ContextLength:   ctxLen,
			Capabilities:    detectCapabilities(m.ID, m.Architecture.Modality),
		})
	}

	s.cache.Set(models)
	return models, nil
}

func (s *OpenRouterService) GetModel(ctx context.Context, modelID string) (*domain.AIModel, error) {
	if m, ok := s.cache.Find(modelID); ok {
		return &m, nil
	}
	models, err := s.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, domain.ErrModelNotFound
}

func (s *OpenRouterService) StreamChat(ctx context.Context, req LLMRequest) (ChatStream, error) {
	creq := s.completionRequest(req)
	creq.Stream = true
	creq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := s.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, upstreamError(err)
	}
	return &openRouterStream{stream: stream}, nil
}

func (s *OpenRouterService) Complete(ctx context.Context, req LLMRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.completionRequest(req))
	if err != nil {
		return "", upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenRouterService) completionRequest(req LLMRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, toOpenAIMessage(m))
	}
	return openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
}

func toOpenAIMessage(m LLMMessage) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if m.Role == domain.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}

	if !hasImages(m.Content) {
		return openai.ChatCompletionMessage{Role: role, Content: PlainText(m.Content)}
	}

	var parts []openai.ChatMessagePart
	if text := PlainText(m.Content); text != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: text})
	}
	for _, p := range m.Content {
		if p.Type == domain.PartImageURL && p.ImageURL != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
			})
		}
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}

// upstreamError tags provider failures so callers can tell them from store
// errors.
func upstreamError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: rate limited by OpenRouter (429): %w", domain.ErrUpstream, err)
		case http.StatusServiceUnavailable:
			return fmt.Errorf("%w: OpenRouter service unavailable (503): %w", domain.ErrUpstream, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

type openRouterStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openRouterStream) Recv() (StreamChunk, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return StreamChunk{}, io.EOF
		}
		return StreamChunk{}, upstreamError(err)
	}

	var chunk StreamChunk
	if len(resp.Choices) > 0 {
		chunk.Delta = resp.Choices[0].Delta.Content
	}
	if resp.Usage != nil {
		chunk.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
	}
	return chunk, nil
}

func (s *openRouterStream) Close() error {
	return s.stream.Close()
}

func detectCapabilities(modelID, modality string) domain.ModelCapabilities {
	id := strings.ToLower(modelID)
	caps := domain.ModelCapabilities{}

	// Vision detection
	if strings.Contains(id, "vision") || strings.Contains(id, "gpt-4o") ||
		strings.Contains(id, "claude-3") || strings.Contains(id, "gemini") ||
		strings.Contains(id, "llava") || strings.Contains(modality, "image") {
		caps.Vision = true
	}

	// Audio detection
	if strings.Contains(id, "audio") || strings.Contains(modality, "audio") {
		caps.Audio = true
	}

	// Image generation
	if strings.Contains(id, "dall-e") || strings.Contains(id, "stable-diffusion") ||
		strings.Contains(id, "flux") || strings.Contains(id, "imagen") {
		caps.ImageGeneration = true
	}

	// File support (vision models generally support files)
	if caps.Vision {
		caps.Files = true
	}

	return caps
}
