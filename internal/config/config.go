package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL   string `env:"DATABASE_URL,required"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY,required"`
	OpenRouterURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`

	// Server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database pool
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"5"`

	// Models
	DefaultModel string `env:"DEFAULT_MODEL" envDefault:"z-ai/glm-4.5-air:free"`
	TitleModel   string `env:"TITLE_MODEL" envDefault:"z-ai/glm-4.5-air:free"`
	SystemPrompt string `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant."`

	// Admin
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Markup
	MarkupPercentNormal  float64 `env:"MARKUP_PERCENT_NORMAL" envDefault:"30"`
	MarkupPercentPremium float64 `env:"MARKUP_PERCENT_PREMIUM" envDefault:"15"`

	// Telegram logging
	LogTelegramBotToken     string `env:"LOG_TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID       int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError           int    `env:"LOG_TOPIC_ERROR"`
	LogTopicBalanceTopUp    int    `env:"LOG_TOPIC_BALANCE_TOPUP"`
	LogTopicPremiumPurchase int    `env:"LOG_TOPIC_PREMIUM_PURCHASE"`
	LogTopicRegistration    int    `env:"LOG_TOPIC_REGISTRATION"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

func (c *Config) MarkupPercent(premium bool) float64 {
	if premium {
		return c.MarkupPercentPremium
	}
	return c.MarkupPercentNormal
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
