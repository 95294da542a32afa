package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID            int64
	Email         string
	DisplayName   string
	Balance       decimal.Decimal
	PremiumUntil  *time.Time
	SelectedModel string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) IsPremium() bool {
	if u.PremiumUntil == nil {
		return false
	}
	return u.PremiumUntil.After(time.Now())
}

// Model returns the user's selected model or fallback when none is set.
func (u *User) Model(fallback string) string {
	if u.SelectedModel != "" {
		return u.SelectedModel
	}
	return fallback
}
