package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

// BranchService manages branch lifecycle and the positioned membership of
// messages in branches. Every structural change runs in one transaction.
type BranchService struct {
	store repository.Store
}

func NewBranchService(store repository.Store) *BranchService {
	return &BranchService{store: store}
}

type ForkParams struct {
	ChatID         uuid.UUID
	ParentBranchID uuid.UUID
	ForkMessageID  uuid.UUID
	ForkVersionID  *uuid.UUID
}

// EnsureDefaultBranch returns the chat's active branch, creating and
// back-filling a root branch first if the chat has none. It returns nil
// without error when the chat does not exist.
func (s *BranchService) EnsureDefaultBranch(ctx context.Context, chatID uuid.UUID) (*domain.Branch, error) {
	var branch *domain.Branch
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		var err error
		branch, err = ensureDefaultBranch(ctx, q, chatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

func ensureDefaultBranch(ctx context.Context, q sqlc.Querier, chatID uuid.UUID) (*domain.Branch, error) {
	// The chat row lock makes active_branch_id the guard for concurrent callers.
	chat, err := q.GetChatForUpdate(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock chat: %w", err)
	}

	if chat.ActiveBranchID != nil {
		row, err := q.GetBranchByID(ctx, *chat.ActiveBranchID)
		if err != nil {
			return nil, fmt.Errorf("get active branch: %w", err)
		}
		return rowToBranch(row), nil
	}

	// A root can outlive the pointer when the active fork was cascaded away.
	root, err := q.GetRootBranch(ctx, chatID)
	switch {
	case err == nil:
		if err := q.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: chatID, ActiveBranchID: &root.ID}); err != nil {
			return nil, fmt.Errorf("set active branch: %w", err)
		}
		return rowToBranch(root), nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get root branch: %w", err)
	}

	row, err := q.CreateBranch(ctx, sqlc.CreateBranchParams{ID: uuid.New(), ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("create default branch: %w", err)
	}

	n, err := q.BackfillBranchMessages(ctx, sqlc.BackfillBranchMessagesParams{BranchID: row.ID, ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("backfill branch messages: %w", err)
	}

	if err := q.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: chatID, ActiveBranchID: &row.ID}); err != nil {
		return nil, fmt.Errorf("set active branch: %w", err)
	}

	slog.Debug("default branch created", "chat_id", chatID, "branch_id", row.ID, "messages", n)
	return rowToBranch(row), nil
}

// AppendMessage places an existing message at the end of a branch.
func (s *BranchService) AppendMessage(ctx context.Context, branchID, messageID uuid.UUID) (*domain.BranchMessage, error) {
	var bm *domain.BranchMessage
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		branch, err := lockBranch(ctx, q, branchID)
		if err != nil {
			return err
		}

		msg, err := q.GetMessageByID(ctx, messageID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrMessageNotFound
			}
			return fmt.Errorf("get message: %w", err)
		}
		if msg.ChatID != branch.ChatID {
			return fmt.Errorf("%w: message belongs to another chat", domain.ErrInvalidState)
		}

		bm, err = appendLocked(ctx, q, branchID, messageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

func lockBranch(ctx context.Context, q sqlc.Querier, branchID uuid.UUID) (sqlc.Branch, error) {
	row, err := q.LockBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqlc.Branch{}, domain.ErrBranchNotFound
		}
		return sqlc.Branch{}, fmt.Errorf("lock branch: %w", err)
	}
	return row, nil
}

// appendLocked assumes the caller holds the branch row lock.
func appendLocked(ctx context.Context, q sqlc.Querier, branchID, messageID uuid.UUID) (*domain.BranchMessage, error) {
	last, err := q.GetLastBranchPosition(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get last position: %w", err)
	}

	row, err := q.InsertBranchMessage(ctx, sqlc.InsertBranchMessageParams{
		BranchID:  branchID,
		MessageID: messageID,
		Position:  last + 1,
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("insert branch message: %w", err)
	}
	return rowToBranchMessage(row), nil
}

// PostMessage creates a message and appends it to the branch atomically, so a
// failed append never leaves an unreferenced message behind.
func (s *BranchService) PostMessage(ctx context.Context, branchID uuid.UUID, role domain.Role, content domain.Content) (*domain.Message, *domain.BranchMessage, error) {
	var (
		msg *domain.Message
		bm  *domain.BranchMessage
	)
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		var err error
		msg, bm, err = postMessage(ctx, q, branchID, role, content)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return msg, bm, nil
}

func postMessage(ctx context.Context, q sqlc.Querier, branchID uuid.UUID, role domain.Role, content domain.Content) (*domain.Message, *domain.BranchMessage, error) {
	branch, err := lockBranch(ctx, q, branchID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := createMessage(ctx, q, branch.ChatID, role, content)
	if err != nil {
		return nil, nil, err
	}
	bm, err := appendLocked(ctx, q, branchID, msg.ID)
	if err != nil {
		return nil, nil, err
	}
	return msg, bm, nil
}

// ForkFromEdit creates a child of the parent branch that shares its rows up
// to and including the fork message, overrides the fork message with the
// given version and becomes the chat's active branch.
func (s *BranchService) ForkFromEdit(ctx context.Context, p ForkParams) (*domain.Branch, error) {
	var branch *domain.Branch
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		var err error
		branch, err = forkFromEdit(ctx, q, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

func forkFromEdit(ctx context.Context, q sqlc.Querier, p ForkParams) (*domain.Branch, error) {
	if _, err := q.GetChatForUpdate(ctx, p.ChatID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("lock chat: %w", err)
	}

	parent, err := lockBranch(ctx, q, p.ParentBranchID)
	if err != nil {
		return nil, err
	}
	if parent.ChatID != p.ChatID {
		return nil, domain.ErrBranchNotFound
	}

	forkRow, err := q.GetBranchMessage(ctx, sqlc.GetBranchMessageParams{
		BranchID:  parent.ID,
		MessageID: p.ForkMessageID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotOnBranch
		}
		return nil, fmt.Errorf("get fork row: %w", err)
	}

	if p.ForkVersionID != nil {
		v, err := q.GetMessageVersion(ctx, *p.ForkVersionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrVersionNotFound
			}
			return nil, fmt.Errorf("get version: %w", err)
		}
		if v.MessageID != p.ForkMessageID {
			return nil, fmt.Errorf("%w: version belongs to another message", domain.ErrInvalidState)
		}
	}

	row, err := q.CreateBranch(ctx, sqlc.CreateBranchParams{
		ID:             uuid.New(),
		ChatID:         p.ChatID,
		ParentBranchID: &parent.ID,
		ForkMessageID:  &p.ForkMessageID,
		ForkVersionID:  p.ForkVersionID,
	})
	if err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	if _, err := q.CopyBranchMessagesUpTo(ctx, sqlc.CopyBranchMessagesUpToParams{
		NewBranchID:    row.ID,
		SourceBranchID: parent.ID,
		MaxPosition:    forkRow.Position,
	}); err != nil {
		return nil, fmt.Errorf("copy branch prefix: %w", err)
	}

	if p.ForkVersionID != nil {
		if err := q.SetBranchMessageVersion(ctx, sqlc.SetBranchMessageVersionParams{
			BranchID:  row.ID,
			MessageID: p.ForkMessageID,
			VersionID: p.ForkVersionID,
		}); err != nil {
			return nil, fmt.Errorf("override fork version: %w", err)
		}
	}

	if err := q.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: p.ChatID, ActiveBranchID: &row.ID}); err != nil {
		return nil, fmt.Errorf("set active branch: %w", err)
	}

	slog.Debug("branch forked",
		"chat_id", p.ChatID,
		"parent_branch_id", parent.ID,
		"branch_id", row.ID,
		"fork_message_id", p.ForkMessageID,
		"position", forkRow.Position,
	)
	return rowToBranch(row), nil
}

type EditParams struct {
	ChatID    uuid.UUID
	BranchID  uuid.UUID
	MessageID uuid.UUID
	Content   domain.Content
}

// EditAndFork records the edited content as a new version and forks from it
// in the same transaction.
func (s *BranchService) EditAndFork(ctx context.Context, p EditParams) (*domain.Branch, *domain.MessageVersion, error) {
	var (
		branch  *domain.Branch
		version *domain.MessageVersion
	)
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		var err error
		if version, err = createVersion(ctx, q, p.MessageID, p.Content); err != nil {
			return err
		}
		branch, err = forkFromEdit(ctx, q, ForkParams{
			ChatID:         p.ChatID,
			ParentBranchID: p.BranchID,
			ForkMessageID:  p.MessageID,
			ForkVersionID:  &version.ID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return branch, version, nil
}

// SetActiveBranch moves the chat's pointer. Callers check that the branch
// belongs to the chat.
func (s *BranchService) SetActiveBranch(ctx context.Context, chatID, branchID uuid.UUID) error {
	if err := s.store.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: chatID, ActiveBranchID: &branchID}); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return domain.ErrBranchNotFound
		}
		return fmt.Errorf("set active branch: %w", err)
	}
	return nil
}

func (s *BranchService) GetBranch(ctx context.Context, chatID, branchID uuid.UUID) (*domain.Branch, error) {
	row, err := s.store.GetBranch(ctx, sqlc.GetBranchParams{ID: branchID, ChatID: chatID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return rowToBranch(row), nil
}

func (s *BranchService) ListBranches(ctx context.Context, chatID uuid.UUID) ([]*domain.Branch, error) {
	rows, err := s.store.ListChatBranches(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	branches := make([]*domain.Branch, 0, len(rows))
	for _, r := range rows {
		branches = append(branches, rowToBranch(r))
	}
	return branches, nil
}

// ResolveMessages returns the branch rows in position order with version
// overrides applied.
func (s *BranchService) ResolveMessages(ctx context.Context, branchID uuid.UUID) ([]domain.ResolvedMessage, error) {
	rows, err := s.store.ResolveBranchMessages(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("resolve branch messages: %w", err)
	}
	msgs := make([]domain.ResolvedMessage, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, rowToResolved(r))
	}
	return msgs, nil
}
