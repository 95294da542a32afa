package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/middleware"
)

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
	r.GET("/share/:sharePath", h.handleGetShared)

	api := r.Group("/api", middleware.Auth(h.userService))

	// Account
	api.GET("/me", h.handleMe)
	api.PUT("/me/model", h.handleSetModel)
	api.GET("/me/transactions", h.handleTransactions)
	api.GET("/premium/plans", h.handlePremiumPlans)
	api.POST("/me/premium", h.handlePremiumBuy)
	api.GET("/models", h.handleModels)

	// Chats
	chats := api.Group("/chats")
	chats.GET("", h.handleListChats)
	chats.GET("/:id", h.handleGetChat)
	chats.PATCH("/:id", h.handleUpdateChat)
	chats.DELETE("/:id", h.handleDeleteChat)
	chats.GET("/:id/branches", h.handleListBranches)
	chats.POST("/:id/branches/:branchId/select", h.handleSelectBranch)
	chats.GET("/:id/messages/:messageId/branches", h.handleMessageVersions)
	chats.DELETE("/:id/messages/:messageId/after", h.handleTruncateAfter)

	// Turns
	api.POST("/chat/completions", middleware.RateLimit(h.rateCounter), h.handleCompletions)

	// Admin
	admin := api.Group("/admin", middleware.RequireAdmin(h.cfg.IsAdmin))
	admin.POST("/users", h.handleAdminCreateUser)
	admin.POST("/users/:userId/tokens", h.handleAdminIssueToken)
	admin.POST("/users/:userId/credit", h.handleAdminCredit)
}

func (h *Handler) handleHealth(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
