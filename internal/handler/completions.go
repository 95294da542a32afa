package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/service"
)

type completionMessage struct {
	Role    domain.Role    `json:"role"`
	Content domain.Content `json:"content"`
}

type completionRequest struct {
	Messages      []completionMessage `json:"messages"`
	Model         string              `json:"model"`
	ChatID        *uuid.UUID          `json:"chatId"`
	BranchID      *uuid.UUID          `json:"branchId"`
	IsEdit        bool                `json:"isEdit"`
	LastMessageID *uuid.UUID          `json:"lastMessageId"`
}

func (r completionRequest) toTurn() (service.TurnRequest, error) {
	msgs := make([]service.LLMMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
		case "system":
			// The server owns the system prompt.
			continue
		default:
			return service.TurnRequest{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidRequest, m.Role)
		}
		msgs = append(msgs, service.LLMMessage{Role: m.Role, Content: m.Content})
	}
	return service.TurnRequest{
		ChatID:        r.ChatID,
		BranchID:      r.BranchID,
		IsEdit:        r.IsEdit,
		LastMessageID: r.LastMessageID,
		Model:         r.Model,
		Messages:      msgs,
	}, nil
}

// handleCompletions runs a chat turn and streams the answer as server-sent
// events. Errors before the stream opens are plain JSON responses.
// POST /api/chat/completions
func (h *Handler) handleCompletions(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	turnReq, err := req.toTurn()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	turn, err := h.turnService.Prepare(ctx, middleware.GetUser(c), turnReq)
	if err != nil {
		respondError(c, err)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	w := c.Writer
	sink := func(ev service.Event) error {
		data, err := json.Marshal(toEventResponse(ev))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		w.Flush()
		return ctx.Err()
	}

	if err := h.turnService.Stream(ctx, turn, sink); err != nil {
		slog.Debug("final event not delivered", "error", err, "chat_id", turn.Chat.ID)
	}
}
