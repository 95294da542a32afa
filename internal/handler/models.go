package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/middleware"
)

type sortType string

const (
	sortPriceAsc  sortType = "price_asc"
	sortPriceDesc sortType = "price_desc"
	sortContext   sortType = "context"
	sortFreeOnly  sortType = "free"
)

// handleModels lists the model catalogue.
// GET /api/models?q=&sort=price_asc
func (h *Handler) handleModels(c *gin.Context) {
	all, err := h.models.ListModels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	aiModels := append([]domain.AIModel(nil), all...)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		aiModels = filterModels(aiModels, q)
	}
	aiModels = sortModels(aiModels, sortType(c.DefaultQuery("sort", string(sortPriceAsc))))

	resp := make([]modelResponse, 0, len(aiModels))
	for _, m := range aiModels {
		resp = append(resp, modelResponse{
			ID:              m.ID,
			Name:            m.Name,
			Description:     m.Description,
			PromptPrice:     m.PromptPrice,
			CompletionPrice: m.CompletionPrice,
			ContextLength:   m.ContextLength,
			Free:            m.IsFree(),
			Capabilities: capabilitiesResponse{
				Vision:          m.Capabilities.Vision,
				Audio:           m.Capabilities.Audio,
				ImageGeneration: m.Capabilities.ImageGeneration,
				Files:           m.Capabilities.Files,
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": resp})
}

type setModelRequest struct {
	Model string `json:"model" binding:"required"`
}

// PUT /api/me/model
func (h *Handler) handleSetModel(c *gin.Context) {
	var req setModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	model, err := h.models.GetModel(ctx, req.Model)
	if err != nil {
		respondError(c, err)
		return
	}

	user := middleware.GetUser(c)
	if err := h.userService.SetSelectedModel(ctx, user.ID, model.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedModel": model.ID})
}

func filterModels(aiModels []domain.AIModel, query string) []domain.AIModel {
	query = strings.ToLower(query)
	var filtered []domain.AIModel
	for _, m := range aiModels {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.ID), query) ||
			strings.Contains(strings.ToLower(m.Description), query) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func sortModels(aiModels []domain.AIModel, s sortType) []domain.AIModel {
	price := func(m domain.AIModel) float64 { return m.PromptPrice + m.CompletionPrice }

	switch s {
	case sortPriceAsc:
		sort.SliceStable(aiModels, func(i, j int) bool {
			return price(aiModels[i]) < price(aiModels[j])
		})
	case sortPriceDesc:
		sort.SliceStable(aiModels, func(i, j int) bool {
			return price(aiModels[i]) > price(aiModels[j])
		})
	case sortContext:
		sort.SliceStable(aiModels, func(i, j int) bool {
			return aiModels[i].ContextLength > aiModels[j].ContextLength
		})
	case sortFreeOnly:
		free := aiModels[:0]
		for _, m := range aiModels {
			if m.IsFree() {
				free = append(free, m)
			}
		}
		return free
	}
	return aiModels
}
