package config

import "time"

const (
	// LLM request timeouts
	RequestTimeout = 90 * time.Second
	StreamTimeout  = 10 * time.Minute
	TitleTimeout   = 8 * time.Second

	// Partial answers are persisted with a fresh deadline after the request is gone
	PersistTimeout = 15 * time.Second

	// Model cache duration
	ModelCacheDuration = 1 * time.Hour

	// Title generation
	MaxTitleLen          = 60
	ShortTitleInputLen   = 40
	MinTitleInputEntropy = 2.5

	// Premium pricing (USD)
	PremiumPrice1Month  = 2.0
	PremiumPrice6Month  = 10.0
	PremiumPrice12Month = 15.0

	// Premium durations
	PremiumDuration1Month  = 30 * 24 * time.Hour
	PremiumDuration6Month  = 180 * 24 * time.Hour
	PremiumDuration12Month = 360 * 24 * time.Hour

	// Rate limits (per minute)
	RateLimitRegular = 6
	RateLimitPremium = 11

	// Rate limit window cleanup interval
	RateLimitCleanup = 60 * time.Second

	// Pagination
	ChatsPerPage        = 50
	MaxChatsPerPage     = 200
	TransactionsPerPage = 50

	// Share paths are random hex of this many bytes
	SharePathBytes = 9

	// HTTP server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second
)
