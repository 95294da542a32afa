package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/service"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery returns nil when the query parameter is absent.
func uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// handleListChats lists the caller's chats, pinned first.
// GET /api/chats?archived=true&limit=50&offset=0
func (h *Handler) handleListChats(c *gin.Context) {
	user := middleware.GetUser(c)

	archived, _ := strconv.ParseBool(c.DefaultQuery("archived", "false"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	chats, err := h.chatService.List(c.Request.Context(), user.ID, service.ListChatsOptions{
		IncludeArchived: archived,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]chatResponse, 0, len(chats))
	for _, ch := range chats {
		resp = append(resp, toChatResponse(ch))
	}
	c.JSON(http.StatusOK, gin.H{"chats": resp})
}

// handleGetChat returns a chat with the messages of one branch.
// GET /api/chats/:id?branchId=
func (h *Handler) handleGetChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	branchID, ok := uuidQuery(c, "branchId")
	if !ok {
		return
	}

	view, err := h.chatService.Get(c.Request.Context(), middleware.GetUser(c).ID, chatID, branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChatView(view))
}

type updateChatRequest struct {
	Title      *string            `json:"title"`
	Visibility *domain.Visibility `json:"visibility"`
	Pinned     *bool              `json:"pinned"`
	Archived   *bool              `json:"archived"`
	Model      *string            `json:"model"`
}

// handleUpdateChat applies the fields present in the body.
// PATCH /api/chats/:id
func (h *Handler) handleUpdateChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUser(c).ID

	chat, err := h.chatService.Owned(ctx, userID, chatID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Model != nil {
		if _, err := h.models.GetModel(ctx, *req.Model); err != nil {
			respondError(c, err)
			return
		}
	}

	steps := []struct {
		set   bool
		apply func() (*domain.Chat, error)
	}{
		{req.Title != nil, func() (*domain.Chat, error) { return h.chatService.Rename(ctx, userID, chatID, *req.Title) }},
		{req.Visibility != nil, func() (*domain.Chat, error) { return h.chatService.SetVisibility(ctx, userID, chatID, *req.Visibility) }},
		{req.Pinned != nil, func() (*domain.Chat, error) { return h.chatService.SetPinned(ctx, userID, chatID, *req.Pinned) }},
		{req.Archived != nil, func() (*domain.Chat, error) { return h.chatService.SetArchived(ctx, userID, chatID, *req.Archived) }},
		{req.Model != nil, func() (*domain.Chat, error) { return h.chatService.SetModel(ctx, userID, chatID, *req.Model) }},
	}
	for _, step := range steps {
		if !step.set {
			continue
		}
		if chat, err = step.apply(); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, toChatResponse(chat))
}

// DELETE /api/chats/:id
func (h *Handler) handleDeleteChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.chatService.Delete(c.Request.Context(), middleware.GetUser(c).ID, chatID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/chats/:id/branches
func (h *Handler) handleListBranches(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	branches, err := h.chatService.Branches(c.Request.Context(), middleware.GetUser(c).ID, chatID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]branchResponse, 0, len(branches))
	for _, b := range branches {
		resp = append(resp, branchResponse{
			ID:             b.ID,
			ParentBranchID: b.ParentBranchID,
			ForkMessageID:  b.ForkMessageID,
			ForkVersionID:  b.ForkVersionID,
			CreatedAt:      b.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"branches": resp})
}

// handleSelectBranch switches the chat's active branch.
// POST /api/chats/:id/branches/:branchId/select
func (h *Handler) handleSelectBranch(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	branchID, ok := uuidParam(c, "branchId")
	if !ok {
		return
	}

	chat, err := h.chatService.SelectBranch(c.Request.Context(), middleware.GetUser(c).ID, chatID, branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": chat.ID, "activeBranchId": chat.ActiveBranchID})
}

// handleMessageVersions lists the edit variants of a message.
// GET /api/chats/:id/messages/:messageId/branches?currentBranchId=
func (h *Handler) handleMessageVersions(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	messageID, ok := uuidParam(c, "messageId")
	if !ok {
		return
	}
	current, ok := uuidQuery(c, "currentBranchId")
	if !ok {
		return
	}

	view, err := h.chatService.Versions(c.Request.Context(), middleware.GetUser(c).ID, chatID, messageID, current)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := versionsResponse{
		CurrentBranchID: view.CurrentBranchID,
		CurrentIndex:    view.CurrentIndex,
		Options:         make([]versionOptionResponse, 0, len(view.Options)),
	}
	for _, o := range view.Options {
		resp.Options = append(resp.Options, versionOptionResponse{
			BranchID:  o.BranchID,
			VersionID: o.VersionID,
			Content:   o.Content,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// handleTruncateAfter deletes every message newer than messageId.
// DELETE /api/chats/:id/messages/:messageId/after
func (h *Handler) handleTruncateAfter(c *gin.Context) {
	chatID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	messageID, ok := uuidParam(c, "messageId")
	if !ok {
		return
	}

	n, err := h.chatService.TruncateAfter(c.Request.Context(), middleware.GetUser(c).ID, chatID, messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// handleGetShared renders a public chat without authentication.
// GET /share/:sharePath
func (h *Handler) handleGetShared(c *gin.Context) {
	view, err := h.chatService.GetShared(c.Request.Context(), c.Param("sharePath"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toChatView(view)
	resp.SharePath = nil
	c.JSON(http.StatusOK, resp)
}
