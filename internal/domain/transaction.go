package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxTypeDebit  TxType = "debit"
	TxTypeCredit TxType = "credit"
)

type Transaction struct {
	ID          int64
	UserID      int64
	Amount      decimal.Decimal
	TxType      TxType
	Description string
	ChatID      *uuid.UUID
	CreatedAt   time.Time
}
