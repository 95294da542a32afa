package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mindchatroot "github.com/set-night/mindchat"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/handler"
	"github.com/set-night/mindchat/internal/metrics"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/telegram"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(mindchatroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := repository.NewPgStore(pool)

	// Initialize telegram logger
	tgLogger, err := telegram.NewTelegramLogger(cfg)
	if err != nil {
		slog.Error("failed to create telegram logger", "error", err)
		os.Exit(1)
	}

	// Initialize services
	openRouter := service.NewOpenRouterService(cfg.OpenRouterKey, cfg.OpenRouterURL)
	userService := service.NewUserService(store)
	messageService := service.NewMessageService(store)
	branchService := service.NewBranchService(store)
	resolverService := service.NewResolverService(store)
	chatService := service.NewChatService(store, branchService, messageService, resolverService)
	billingService := service.NewBillingService(store)
	premiumService := service.NewPremiumService(store)
	turnService := service.NewTurnService(service.TurnDeps{
		Cfg:      cfg,
		Store:    store,
		Chats:    chatService,
		Branches: branchService,
		Messages: messageService,
		Billing:  billingService,
		LLM:      openRouter,
		Models:   openRouter,
		Titles:   service.NewTitleGenerator(openRouter, cfg.TitleModel),
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Alerter:  tgLogger,
	})

	// Initialize handler
	h := handler.New(handler.Deps{
		Cfg:            cfg,
		UserService:    userService,
		ChatService:    chatService,
		TurnService:    turnService,
		BillingService: billingService,
		PremiumService: premiumService,
		Models:         openRouter,
		RateCounter:    store,
		TgLogger:       tgLogger,
		Metrics:        promhttp.Handler(),
		Ping:           pool.Ping,
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recover(), middleware.Logging())
	h.Register(engine)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Rate limit window cleanup
	g.Go(func() error {
		ticker := time.NewTicker(config.RateLimitCleanup)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := store.CleanupRateLimits(gctx); err != nil {
					slog.Error("cleanup rate limits", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
