package service

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
)

type PremiumService struct {
	store repository.Store
}

func NewPremiumService(store repository.Store) *PremiumService {
	return &PremiumService{store: store}
}

type PremiumOption struct {
	ID       string
	Label    string
	Price    float64
	Duration time.Duration
}

func GetPremiumOptions() []PremiumOption {
	return []PremiumOption{
		{ID: "1m", Label: "1 month", Price: config.PremiumPrice1Month, Duration: config.PremiumDuration1Month},
		{ID: "6m", Label: "6 months", Price: config.PremiumPrice6Month, Duration: config.PremiumDuration6Month},
		{ID: "12m", Label: "12 months", Price: config.PremiumPrice12Month, Duration: config.PremiumDuration12Month},
	}
}

func FindPremiumOption(id string) (PremiumOption, error) {
	for _, o := range GetPremiumOptions() {
		if o.ID == id {
			return o, nil
		}
	}
	return PremiumOption{}, domain.ErrUnknownPlan
}

// Purchase pays for premium from the balance. An active subscription is
// extended from its current end.
func (s *PremiumService) Purchase(ctx context.Context, userID int64, option PremiumOption) (time.Time, error) {
	price := decimal.NewFromFloat(option.Price)
	var newPremiumUntil time.Time

	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		user, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}

		if user.Balance.LessThan(price) {
			return domain.ErrInsufficientBalance
		}

		negPrice := price.Neg()
		if _, err := q.UpdateUserBalance(ctx, sqlc.UpdateUserBalanceParams{
			ID:      userID,
			Balance: negPrice,
		}); err != nil {
			return fmt.Errorf("deduct balance: %w", err)
		}

		if _, err := q.CreateTransaction(ctx, sqlc.CreateTransactionParams{
			UserID:      userID,
			Amount:      negPrice,
			TxType:      string(domain.TxTypeDebit),
			Description: fmt.Sprintf("Premium subscription: %s", option.Label),
		}); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		if user.PremiumUntil.Valid && user.PremiumUntil.Time.After(time.Now()) {
			newPremiumUntil = user.PremiumUntil.Time.Add(option.Duration)
		} else {
			newPremiumUntil = time.Now().Add(option.Duration)
		}

		if err := q.SetUserPremiumUntil(ctx, sqlc.SetUserPremiumUntilParams{
			ID:           userID,
			PremiumUntil: timeToPgTimestamptz(newPremiumUntil),
		}); err != nil {
			return fmt.Errorf("set premium: %w", err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return newPremiumUntil, nil
}
