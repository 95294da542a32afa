package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/shopspring/decimal"
)

const (
	MaxMessageLen = 4096
	sendTimeout   = 10 * time.Second
)

type LogType string

const (
	LogTypeError           LogType = "error"
	LogTypeRegistration    LogType = "registration"
	LogTypeBalanceTopUp    LogType = "balanceTopUp"
	LogTypePremiumPurchase LogType = "premiumPurchase"
)

// TelegramLogger mirrors operational events into topics of a Telegram
// forum chat. A nil *TelegramLogger drops everything.
type TelegramLogger struct {
	bot    *bot.Bot
	chatID int64
	topics map[LogType]int
}

// NewTelegramLogger returns nil when no bot token or chat is configured.
func NewTelegramLogger(cfg *config.Config, opts ...bot.Option) (*TelegramLogger, error) {
	if cfg.LogTelegramBotToken == "" || cfg.LogTelegramChatID == 0 {
		return nil, nil
	}
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(cfg.LogTelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramLogger{
		bot:    b,
		chatID: cfg.LogTelegramChatID,
		topics: map[LogType]int{
			LogTypeError:           cfg.LogTopicError,
			LogTypeRegistration:    cfg.LogTopicRegistration,
			LogTypeBalanceTopUp:    cfg.LogTopicBalanceTopUp,
			LogTypePremiumPurchase: cfg.LogTopicPremiumPurchase,
		},
	}, nil
}

// Log sends an HTML message to the topic of logType. Types without a topic
// are dropped.
func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil {
		return
	}
	topicID := l.topics[logType]
	if topicID == 0 {
		return
	}

	if r := []rune(message); len(r) > MaxMessageLen {
		message = string(r[:MaxMessageLen-20]) + "\n\n… (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            message,
		ParseMode:       models.ParseModeHTML,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, where string) {
	l.Log(LogTypeError, fmt.Sprintf("❌ <b>Error</b>\n\n<b>Where:</b> %s\n<b>Error:</b> <code>%s</code>\n<b>Time:</b> %s",
		html.EscapeString(where), html.EscapeString(err.Error()), time.Now().UTC().Format(time.DateTime)))
}

func (l *TelegramLogger) LogRegistration(userID int64, email string) {
	l.Log(LogTypeRegistration, fmt.Sprintf("👤 <b>New user</b>\n\n<b>ID:</b> <code>%d</code>\n<b>Email:</b> %s",
		userID, html.EscapeString(email)))
}

func (l *TelegramLogger) LogBalanceTopUp(userID int64, amount decimal.Decimal, by string) {
	l.Log(LogTypeBalanceTopUp, fmt.Sprintf("💰 <b>Balance credit</b>\n\n<b>User:</b> <code>%d</code>\n<b>Amount:</b> $%s\n<b>By:</b> %s",
		userID, amount.StringFixed(2), html.EscapeString(by)))
}

func (l *TelegramLogger) LogPremiumPurchase(userID int64, plan string, price float64) {
	l.Log(LogTypePremiumPurchase, fmt.Sprintf("⭐ <b>Premium</b>\n\n<b>User:</b> <code>%d</code>\n<b>Plan:</b> %s\n<b>Price:</b> $%.2f",
		userID, html.EscapeString(plan), price))
}
