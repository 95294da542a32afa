package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

// MessageService stores immutable messages and their edit versions.
type MessageService struct {
	store repository.Store
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store}
}

func (s *MessageService) CreateMessage(ctx context.Context, chatID uuid.UUID, role domain.Role, content domain.Content) (*domain.Message, error) {
	return createMessage(ctx, s.store, chatID, role, content)
}

func createMessage(ctx context.Context, q sqlc.Querier, chatID uuid.UUID, role domain.Role, content domain.Content) (*domain.Message, error) {
	raw, err := encodeContent(content)
	if err != nil {
		return nil, err
	}
	row, err := q.CreateMessage(ctx, sqlc.CreateMessageParams{
		ID:      uuid.New(),
		ChatID:  chatID,
		Role:    string(role),
		Content: raw,
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("create message: %w", err)
	}
	return rowToMessage(row), nil
}

func (s *MessageService) GetMessage(ctx context.Context, chatID, messageID uuid.UUID) (*domain.Message, error) {
	row, err := s.store.GetMessage(ctx, sqlc.GetMessageParams{ID: messageID, ChatID: chatID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return rowToMessage(row), nil
}

func (s *MessageService) CreateVersion(ctx context.Context, messageID uuid.UUID, content domain.Content) (*domain.MessageVersion, error) {
	return createVersion(ctx, s.store, messageID, content)
}

func createVersion(ctx context.Context, q sqlc.Querier, messageID uuid.UUID, content domain.Content) (*domain.MessageVersion, error) {
	if _, err := q.GetMessageByID(ctx, messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	raw, err := encodeContent(content)
	if err != nil {
		return nil, err
	}
	row, err := q.CreateMessageVersion(ctx, sqlc.CreateMessageVersionParams{
		ID:        uuid.New(),
		MessageID: messageID,
		Content:   raw,
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("create message version: %w", err)
	}
	return rowToVersion(row), nil
}

// DeleteMessagesCreatedAfter removes every message of the chat strictly newer
// than messageID. Branches forked at a removed message go with it; if that
// takes the active branch, the chat falls back to its root branch. Surviving
// branch rows are renumbered so positions stay contiguous.
func (s *MessageService) DeleteMessagesCreatedAfter(ctx context.Context, chatID, messageID uuid.UUID) (int64, error) {
	var deleted int64
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		chat, err := q.GetChatForUpdate(ctx, chatID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("lock chat: %w", err)
		}

		deleted, err = q.DeleteMessagesCreatedAfter(ctx, sqlc.DeleteMessagesCreatedAfterParams{
			ChatID:    chatID,
			MessageID: messageID,
		})
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if deleted == 0 {
			return nil
		}

		// A branch may hold an older message after a newer one, so the
		// delete can leave holes in the middle of it.
		if _, err := q.CompactBranchPositions(ctx, chatID); err != nil {
			return fmt.Errorf("compact branch positions: %w", err)
		}
		if chat.ActiveBranchID == nil {
			return nil
		}

		if _, err := q.GetBranchByID(ctx, *chat.ActiveBranchID); err == nil {
			return nil
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("get active branch: %w", err)
		}

		root, err := q.GetRootBranch(ctx, chatID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("get root branch: %w", err)
		}
		if err := q.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: chatID, ActiveBranchID: &root.ID}); err != nil {
			return fmt.Errorf("reset active branch: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
