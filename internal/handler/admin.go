package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/shopspring/decimal"
)

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
}

// handleAdminCreateUser registers a user and returns its first API token.
// POST /api/admin/users
func (h *Handler) handleAdminCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, token, err := h.userService.Create(c.Request.Context(), req.Email, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.tgLogger.LogRegistration(user.ID, user.Email)

	c.JSON(http.StatusCreated, gin.H{
		"user":  toUserResponse(user, h.cfg.DefaultModel),
		"token": token,
	})
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid userId")
		return 0, false
	}
	return id, true
}

// POST /api/admin/users/:userId/tokens
func (h *Handler) handleAdminIssueToken(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	token, err := h.userService.IssueToken(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

type creditRequest struct {
	Amount string `json:"amount" binding:"required"`
	Note   string `json:"note"`
}

// handleAdminCredit tops up a user's balance.
// POST /api/admin/users/:userId/credit
func (h *Handler) handleAdminCredit(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(c, "invalid amount")
		return
	}

	admin := middleware.GetUser(c)
	description := req.Note
	if description == "" {
		description = fmt.Sprintf("Top-up by %s", admin.Email)
	}

	balance, err := h.billingService.Credit(c.Request.Context(), userID, amount, description)
	if err != nil {
		respondError(c, err)
		return
	}

	h.tgLogger.LogBalanceTopUp(userID, amount, admin.Email)

	c.JSON(http.StatusOK, gin.H{"userId": userID, "balance": balance.StringFixed(4)})
}
