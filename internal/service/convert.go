package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
)

// pgTimestamptzToTime converts pgtype.Timestamptz to time.Time.
func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if ts.Valid {
		return ts.Time
	}
	return time.Time{}
}

// pgTimestamptzToTimePtr converts pgtype.Timestamptz to *time.Time.
func pgTimestamptzToTimePtr(ts pgtype.Timestamptz) *time.Time {
	if ts.Valid {
		t := ts.Time
		return &t
	}
	return nil
}

// timeToPgTimestamptz converts time.Time to pgtype.Timestamptz.
func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

// decimalToFloat converts decimal.Decimal to float64.
func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func encodeContent(c domain.Content) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return b, nil
}

// decodeContent never fails the read path: a malformed payload is surfaced as
// its raw text so the conversation stays viewable.
func decodeContent(raw []byte) domain.Content {
	var c domain.Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.TextContent(string(raw))
	}
	return c
}

func rowToUser(row sqlc.User) *domain.User {
	return &domain.User{
		ID:            row.ID,
		Email:         row.Email,
		DisplayName:   row.DisplayName,
		Balance:       row.Balance,
		PremiumUntil:  pgTimestamptzToTimePtr(row.PremiumUntil),
		SelectedModel: row.SelectedModel,
		CreatedAt:     pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:     pgTimestamptzToTime(row.UpdatedAt),
	}
}

func rowToTransaction(row sqlc.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Amount:      row.Amount,
		TxType:      domain.TxType(row.TxType),
		Description: row.Description,
		ChatID:      row.ChatID,
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToChat(row sqlc.Chat) *domain.Chat {
	return &domain.Chat{
		ID:             row.ID,
		UserID:         row.UserID,
		Title:          row.Title,
		ActiveBranchID: row.ActiveBranchID,
		Visibility:     domain.Visibility(row.Visibility),
		SharePath:      row.SharePath,
		Model:          row.Model,
		ArchivedAt:     pgTimestamptzToTimePtr(row.ArchivedAt),
		PinnedAt:       pgTimestamptzToTimePtr(row.PinnedAt),
		CreatedAt:      pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:      pgTimestamptzToTime(row.UpdatedAt),
	}
}

func rowToMessage(row sqlc.Message) *domain.Message {
	return &domain.Message{
		ID:        row.ID,
		ChatID:    row.ChatID,
		Role:      domain.Role(row.Role),
		Content:   decodeContent(row.Content),
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToVersion(row sqlc.MessageVersion) *domain.MessageVersion {
	return &domain.MessageVersion{
		ID:        row.ID,
		MessageID: row.MessageID,
		Content:   decodeContent(row.Content),
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToBranch(row sqlc.Branch) *domain.Branch {
	return &domain.Branch{
		ID:             row.ID,
		ChatID:         row.ChatID,
		ParentBranchID: row.ParentBranchID,
		ForkMessageID:  row.ForkMessageID,
		ForkVersionID:  row.ForkVersionID,
		CreatedAt:      pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToBranchMessage(row sqlc.BranchMessage) *domain.BranchMessage {
	return &domain.BranchMessage{
		BranchID:  row.BranchID,
		MessageID: row.MessageID,
		VersionID: row.VersionID,
		Position:  int(row.Position),
	}
}

func rowToResolved(row sqlc.ResolveBranchMessagesRow) domain.ResolvedMessage {
	return domain.ResolvedMessage{
		MessageID: row.MessageID,
		VersionID: row.VersionID,
		Role:      domain.Role(row.Role),
		Content:   decodeContent(row.Content),
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
		Position:  int(row.Position),
	}
}
