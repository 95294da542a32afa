package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/service"
)

type premiumPlanResponse struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
	Days  int     `json:"days"`
}

// GET /api/premium/plans
func (h *Handler) handlePremiumPlans(c *gin.Context) {
	options := service.GetPremiumOptions()
	resp := make([]premiumPlanResponse, 0, len(options))
	for _, o := range options {
		resp = append(resp, premiumPlanResponse{
			ID:    o.ID,
			Label: o.Label,
			Price: o.Price,
			Days:  int(o.Duration.Hours() / 24),
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": resp})
}

type premiumBuyRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// handlePremiumBuy pays for premium from the balance.
// POST /api/me/premium
func (h *Handler) handlePremiumBuy(c *gin.Context) {
	var req premiumBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	option, err := service.FindPremiumOption(req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}

	user := middleware.GetUser(c)
	until, err := h.premiumService.Purchase(c.Request.Context(), user.ID, option)
	if err != nil {
		respondError(c, err)
		return
	}

	h.tgLogger.LogPremiumPurchase(user.ID, option.Label, option.Price)

	c.JSON(http.StatusOK, gin.H{"plan": option.ID, "premiumUntil": until})
}
