package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/middleware"
)

// GET /api/me
func (h *Handler) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(middleware.GetUser(c), h.cfg.DefaultModel))
}

// GET /api/me/transactions?limit=&offset=
func (h *Handler) handleTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	txs, err := h.userService.ListTransactions(c.Request.Context(), middleware.GetUser(c).ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		resp = append(resp, transactionResponse{
			ID:          t.ID,
			Amount:      t.Amount.String(),
			Type:        string(t.TxType),
			Description: t.Description,
			ChatID:      t.ChatID,
			CreatedAt:   t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": resp})
}
