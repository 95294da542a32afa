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

// ResolverService computes the navigable variants of an edited message.
type ResolverService struct {
	store repository.Store
}

func NewResolverService(store repository.Store) *ResolverService {
	return &ResolverService{store: store}
}

type VersionQuery struct {
	ChatID          uuid.UUID
	MessageID       uuid.UUID
	CurrentBranchID uuid.UUID
}

// ListVersionBranchesForMessage finds the branch the message's edit-forks
// hang off (the base) and lists the message as seen on the base followed by
// each sibling fork in creation order.
//
// The base is found by walking up from the current branch to the nearest
// ancestor (itself included) forked at the message; that ancestor's parent
// is the base. Without such an ancestor the current branch is the base.
func (s *ResolverService) ListVersionBranchesForMessage(ctx context.Context, vq VersionQuery) (*domain.VersionList, error) {
	current, err := s.store.GetBranch(ctx, sqlc.GetBranchParams{ID: vq.CurrentBranchID, ChatID: vq.ChatID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, fmt.Errorf("get current branch: %w", err)
	}

	scope, base, err := s.findScope(ctx, vq, current)
	if err != nil {
		return nil, err
	}

	list := &domain.VersionList{
		MessageID:     vq.MessageID,
		ScopeBranchID: scope.ID,
		BaseBranchID:  base.ID,
	}

	original, err := s.store.ResolveBranchMessage(ctx, sqlc.ResolveBranchMessageParams{
		BranchID:  base.ID,
		MessageID: vq.MessageID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotOnBranch
		}
		return nil, fmt.Errorf("resolve base message: %w", err)
	}
	list.Options = append(list.Options, domain.VersionOption{
		BranchID:  base.ID,
		VersionID: original.VersionID,
		Content:   decodeContent(original.Content),
	})

	siblings, err := s.store.ListSiblingBranches(ctx, sqlc.ListSiblingBranchesParams{
		ChatID:         vq.ChatID,
		ParentBranchID: base.ID,
		ForkMessageID:  vq.MessageID,
	})
	if err != nil {
		return nil, fmt.Errorf("list sibling branches: %w", err)
	}

	for _, sib := range siblings {
		row, err := s.store.ResolveBranchMessage(ctx, sqlc.ResolveBranchMessageParams{
			BranchID:  sib.ID,
			MessageID: vq.MessageID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("resolve sibling message: %w", err)
		}
		list.Options = append(list.Options, domain.VersionOption{
			BranchID:  sib.ID,
			VersionID: row.VersionID,
			Content:   decodeContent(row.Content),
		})
	}

	return list, nil
}

// findScope walks parent pointers iteratively. The visited set stops a
// corrupted chain from looping and the chat scope keeps the walk inside one
// conversation.
func (s *ResolverService) findScope(ctx context.Context, vq VersionQuery, current sqlc.Branch) (scope, base sqlc.Branch, err error) {
	visited := map[uuid.UUID]bool{}
	b := current
	for {
		if visited[b.ID] {
			return current, current, nil
		}
		visited[b.ID] = true

		if b.ForkMessageID != nil && *b.ForkMessageID == vq.MessageID {
			if b.ParentBranchID == nil {
				return b, b, nil
			}
			parent, err := s.getBranch(ctx, vq.ChatID, *b.ParentBranchID)
			if err != nil {
				return sqlc.Branch{}, sqlc.Branch{}, err
			}
			return b, parent, nil
		}

		if b.ParentBranchID == nil {
			return current, current, nil
		}
		next, err := s.getBranch(ctx, vq.ChatID, *b.ParentBranchID)
		if err != nil {
			return sqlc.Branch{}, sqlc.Branch{}, err
		}
		b = next
	}
}

func (s *ResolverService) getBranch(ctx context.Context, chatID, branchID uuid.UUID) (sqlc.Branch, error) {
	row, err := s.store.GetBranch(ctx, sqlc.GetBranchParams{ID: branchID, ChatID: chatID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqlc.Branch{}, domain.ErrBranchNotFound
		}
		return sqlc.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	return row, nil
}
