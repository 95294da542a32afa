package service

import (
	"context"

	"github.com/set-night/mindchat/internal/domain"
)

// LLMGateway is the language-model collaborator. StreamChat returns a stream
// whose Recv yields deltas and ends with io.EOF.
type LLMGateway interface {
	StreamChat(ctx context.Context, req LLMRequest) (ChatStream, error)
	Complete(ctx context.Context, req LLMRequest) (string, error)
}

type ModelCatalog interface {
	ListModels(ctx context.Context) ([]domain.AIModel, error)
	GetModel(ctx context.Context, modelID string) (*domain.AIModel, error)
}

type LLMMessage struct {
	Role    domain.Role
	Content domain.Content
}

type LLMRequest struct {
	Model        string
	SystemPrompt string
	Messages     []LLMMessage
	MaxTokens    int
}

type ChatStream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// StreamChunk carries a text delta. Usage is set on the chunk that reports
// token accounting, usually the last one.
type StreamChunk struct {
	Delta string
	Usage *domain.Usage
}
