package handler

import (
	"context"
	"net/http"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/telegram"
)

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg            *config.Config
	userService    *service.UserService
	chatService    *service.ChatService
	turnService    *service.TurnService
	billingService *service.BillingService
	premiumService *service.PremiumService
	models         service.ModelCatalog
	rateCounter    middleware.RateCounter
	tgLogger       *telegram.TelegramLogger
	metrics        http.Handler
	ping           func(ctx context.Context) error
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg            *config.Config
	UserService    *service.UserService
	ChatService    *service.ChatService
	TurnService    *service.TurnService
	BillingService *service.BillingService
	PremiumService *service.PremiumService
	Models         service.ModelCatalog
	RateCounter    middleware.RateCounter
	TgLogger       *telegram.TelegramLogger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ping backs /healthz when set.
	Ping func(ctx context.Context) error
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:            deps.Cfg,
		userService:    deps.UserService,
		chatService:    deps.ChatService,
		turnService:    deps.TurnService,
		billingService: deps.BillingService,
		premiumService: deps.PremiumService,
		models:         deps.Models,
		rateCounter:    deps.RateCounter,
		tgLogger:       deps.TgLogger,
		metrics:        deps.Metrics,
		ping:           deps.Ping,
	}
}
