package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
)

type messageResponse struct {
	ID        uuid.UUID      `json:"id"`
	Role      domain.Role    `json:"role"`
	Content   domain.Content `json:"content"`
	VersionID *uuid.UUID     `json:"versionId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type chatResponse struct {
	ID             uuid.UUID         `json:"id"`
	Title          string            `json:"title"`
	ActiveBranchID *uuid.UUID        `json:"activeBranchId"`
	BranchID       *uuid.UUID        `json:"branchId,omitempty"`
	Visibility     domain.Visibility `json:"visibility"`
	SharePath      *string           `json:"sharePath,omitempty"`
	Model          string            `json:"model"`
	PinnedAt       *time.Time        `json:"pinnedAt"`
	ArchivedAt     *time.Time        `json:"archivedAt"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Messages       []messageResponse `json:"messages,omitempty"`
}

func toChatResponse(c *domain.Chat) chatResponse {
	return chatResponse{
		ID:             c.ID,
		Title:          c.Title,
		ActiveBranchID: c.ActiveBranchID,
		Visibility:     c.Visibility,
		SharePath:      c.SharePath,
		Model:          c.Model,
		PinnedAt:       c.PinnedAt,
		ArchivedAt:     c.ArchivedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toChatView(v *service.ChatView) chatResponse {
	resp := toChatResponse(v.Chat)
	resp.BranchID = &v.BranchID
	resp.Messages = make([]messageResponse, 0, len(v.Messages))
	for _, m := range v.Messages {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:        m.MessageID,
			Role:      m.Role,
			Content:   m.Content,
			VersionID: m.VersionID,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp
}

type branchResponse struct {
	ID             uuid.UUID  `json:"id"`
	ParentBranchID *uuid.UUID `json:"parentBranchId"`
	ForkMessageID  *uuid.UUID `json:"forkMessageId"`
	ForkVersionID  *uuid.UUID `json:"forkVersionId"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type versionOptionResponse struct {
	BranchID  uuid.UUID      `json:"branchId"`
	VersionID *uuid.UUID     `json:"versionId"`
	Content   domain.Content `json:"content"`
}

type versionsResponse struct {
	CurrentBranchID uuid.UUID               `json:"currentBranchId"`
	CurrentIndex    int                     `json:"currentIndex"`
	Options         []versionOptionResponse `json:"options"`
}

type userResponse struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	Balance       string     `json:"balance"`
	PremiumUntil  *time.Time `json:"premiumUntil"`
	IsPremium     bool       `json:"isPremium"`
	SelectedModel string     `json:"selectedModel"`
}

func toUserResponse(u *domain.User, defaultModel string) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Balance:       u.Balance.StringFixed(4),
		PremiumUntil:  u.PremiumUntil,
		IsPremium:     u.IsPremium(),
		SelectedModel: u.Model(defaultModel),
	}
}

type transactionResponse struct {
	ID          int64      `json:"id"`
	Amount      string     `json:"amount"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	ChatID      *uuid.UUID `json:"chatId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type modelResponse struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	PromptPrice     float64              `json:"promptPrice"`
	CompletionPrice float64              `json:"completionPrice"`
	ContextLength   int                  `json:"contextLength"`
	Free            bool                 `json:"free"`
	Capabilities    capabilitiesResponse `json:"capabilities"`
}

type capabilitiesResponse struct {
	Vision          bool `json:"vision"`
	Audio           bool `json:"audio"`
	ImageGeneration bool `json:"imageGeneration"`
	Files           bool `json:"files"`
}

type usageResponse struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// eventResponse is one SSE data payload.
type eventResponse struct {
	Type      service.EventType `json:"type"`
	ChatID    *uuid.UUID        `json:"chatId,omitempty"`
	BranchID  *uuid.UUID        `json:"branchId,omitempty"`
	Title     string            `json:"title,omitempty"`
	Delta     string            `json:"delta,omitempty"`
	MessageID *uuid.UUID        `json:"messageId,omitempty"`
	Usage     *usageResponse    `json:"usage,omitempty"`
	Cost      string            `json:"cost,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func toEventResponse(ev service.Event) eventResponse {
	resp := eventResponse{
		Type:      ev.Type,
		Title:     ev.Title,
		Delta:     ev.Delta,
		MessageID: ev.MessageID,
	}
	if ev.ChatID != uuid.Nil {
		resp.ChatID = &ev.ChatID
	}
	if ev.BranchID != uuid.Nil {
		resp.BranchID = &ev.BranchID
	}
	if ev.Usage != nil {
		resp.Usage = &usageResponse{PromptTokens: ev.Usage.PromptTokens, CompletionTokens: ev.Usage.CompletionTokens}
	}
	if !ev.Cost.IsZero() {
		resp.Cost = ev.Cost.String()
	}
	if ev.Err != nil {
		_, resp.Error = errorStatus(ev.Err)
	}
	return resp
}
