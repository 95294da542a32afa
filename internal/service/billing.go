package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
)

type BillingService struct {
	store repository.Store
}

func NewBillingService(store repository.Store) *BillingService {
	return &BillingService{store: store}
}

var perMillion = decimal.NewFromInt(1_000_000)

// CalculateCost prices a completion. Prices are per 1M tokens; markupPercent
// is applied on top.
func CalculateCost(promptTokens, completionTokens int, promptPrice, completionPrice, markupPercent float64) decimal.Decimal {
	prompt := decimal.NewFromInt(int64(promptTokens)).Mul(decimal.NewFromFloat(promptPrice))
	completion := decimal.NewFromInt(int64(completionTokens)).Mul(decimal.NewFromFloat(completionPrice))
	base := prompt.Add(completion).Div(perMillion)
	markup := decimal.NewFromFloat(1 + markupPercent/100)
	return base.Mul(markup).Round(8)
}

// EnsureCanAfford refuses paid models while the balance is negative. Free
// models are always allowed.
func EnsureCanAfford(user *domain.User, model *domain.AIModel) error {
	if model.IsFree() {
		return nil
	}
	if user.Balance.IsNegative() {
		return domain.ErrInsufficientBalance
	}
	return nil
}

type UsageCharge struct {
	UserID        int64
	ChatID        uuid.UUID
	Model         *domain.AIModel
	Usage         domain.Usage
	MarkupPercent float64
}

// ChargeUsage debits an answered turn. The answer was already delivered, so
// the debit is recorded even when it takes the balance below zero.
func (s *BillingService) ChargeUsage(ctx context.Context, c UsageCharge) (totalCost decimal.Decimal, err error) {
	if c.Model == nil || c.Model.IsFree() {
		return decimal.Zero, nil
	}
	totalCost = CalculateCost(c.Usage.PromptTokens, c.Usage.CompletionTokens, c.Model.PromptPrice, c.Model.CompletionPrice, c.MarkupPercent)
	if totalCost.IsZero() {
		return decimal.Zero, nil
	}

	chatID := c.ChatID
	err = s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		if _, err := q.GetUserForUpdate(ctx, c.UserID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if _, err := q.UpdateUserBalance(ctx, sqlc.UpdateUserBalanceParams{
			ID:      c.UserID,
			Balance: totalCost.Neg(),
		}); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		if _, err := q.CreateTransaction(ctx, sqlc.CreateTransactionParams{
			UserID:      c.UserID,
			Amount:      totalCost.Neg(),
			TxType:      string(domain.TxTypeDebit),
			Description: fmt.Sprintf("%s: %d prompt + %d completion tokens", c.Model.ID, c.Usage.PromptTokens, c.Usage.CompletionTokens),
			ChatID:      &chatID,
		}); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return totalCost, nil
}

// Credit tops up a balance and returns the new value.
func (s *BillingService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (newBalance decimal.Decimal, err error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidRequest)
	}

	err = s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		if _, err := q.GetUserForUpdate(ctx, userID); err != nil {
			return userLookupError(err)
		}

		newBalance, err = q.UpdateUserBalance(ctx, sqlc.UpdateUserBalanceParams{ID: userID, Balance: amount})
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		if _, err := q.CreateTransaction(ctx, sqlc.CreateTransactionParams{
			UserID:      userID,
			Amount:      amount,
			TxType:      string(domain.TxTypeCredit),
			Description: description,
		}); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}
