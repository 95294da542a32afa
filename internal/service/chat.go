package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

// ChatService owns chat metadata and the read side of conversations. Every
// query is scoped by the owning user.
type ChatService struct {
	store    repository.Store
	branches *BranchService
	messages *MessageService
	resolver *ResolverService
}

func NewChatService(store repository.Store, branches *BranchService, messages *MessageService, resolver *ResolverService) *ChatService {
	return &ChatService{store: store, branches: branches, messages: messages, resolver: resolver}
}

// ChatView is a chat with the resolved messages of one of its branches.
type ChatView struct {
	Chat     *domain.Chat
	BranchID uuid.UUID
	Messages []domain.ResolvedMessage
}

type VersionsView struct {
	CurrentBranchID uuid.UUID
	CurrentIndex    int
	Options         []domain.VersionOption
}

type ListChatsOptions struct {
	IncludeArchived bool
	Limit           int
	Offset          int
}

func chatLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrChatNotFound
	}
	return fmt.Errorf("get chat: %w", err)
}

func (s *ChatService) Create(ctx context.Context, userID int64, title, model string) (*domain.Chat, error) {
	return createChat(ctx, s.store, userID, title, model)
}

func createChat(ctx context.Context, q sqlc.Querier, userID int64, title, model string) (*domain.Chat, error) {
	row, err := q.CreateChat(ctx, sqlc.CreateChatParams{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Model:  model,
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return rowToChat(row), nil
}

// Owned returns the chat if userID owns it.
func (s *ChatService) Owned(ctx context.Context, userID int64, chatID uuid.UUID) (*domain.Chat, error) {
	row, err := s.store.GetChat(ctx, sqlc.GetChatParams{ID: chatID, UserID: userID})
	if err != nil {
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

// Get loads the chat with the messages of branchID, or of the active branch
// when branchID is nil. Chats without branches get their default one here.
func (s *ChatService) Get(ctx context.Context, userID int64, chatID uuid.UUID, branchID *uuid.UUID) (*ChatView, error) {
	chat, err := s.Owned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, chat, branchID)
}

func (s *ChatService) view(ctx context.Context, chat *domain.Chat, branchID *uuid.UUID) (*ChatView, error) {
	var branch *domain.Branch
	var err error
	if branchID != nil {
		branch, err = s.branches.GetBranch(ctx, chat.ID, *branchID)
	} else {
		branch, err = s.branches.EnsureDefaultBranch(ctx, chat.ID)
		if err == nil && branch == nil {
			err = domain.ErrChatNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	if chat.ActiveBranchID == nil {
		chat.ActiveBranchID = &branch.ID
	}

	msgs, err := s.branches.ResolveMessages(ctx, branch.ID)
	if err != nil {
		return nil, err
	}
	return &ChatView{Chat: chat, BranchID: branch.ID, Messages: msgs}, nil
}

// GetShared renders the active branch of a public chat.
func (s *ChatService) GetShared(ctx context.Context, sharePath string) (*ChatView, error) {
	row, err := s.store.GetChatBySharePath(ctx, sharePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShareNotFound
		}
		return nil, fmt.Errorf("get shared chat: %w", err)
	}
	return s.view(ctx, rowToChat(row), nil)
}

func (s *ChatService) List(ctx context.Context, userID int64, opts ListChatsOptions) ([]*domain.Chat, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = config.ChatsPerPage
	}
	limit = min(limit, config.MaxChatsPerPage)

	rows, err := s.store.ListChats(ctx, sqlc.ListChatsParams{
		UserID:          userID,
		IncludeArchived: opts.IncludeArchived,
		RowLimit:        int32(limit),
		RowOffset:       int32(max(opts.Offset, 0)),
	})
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	chats := make([]*domain.Chat, 0, len(rows))
	for _, r := range rows {
		chats = append(chats, rowToChat(r))
	}
	return chats, nil
}

func (s *ChatService) Rename(ctx context.Context, userID int64, chatID uuid.UUID, title string) (*domain.Chat, error) {
	title = truncateTitle(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	row, err := s.store.UpdateChatTitle(ctx, sqlc.UpdateChatTitleParams{ID: chatID, UserID: userID, Title: title})
	if err != nil {
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

// SetVisibility makes a chat public or private. A public chat keeps its share
// path across repeated calls; going private drops it.
func (s *ChatService) SetVisibility(ctx context.Context, userID int64, chatID uuid.UUID, visibility domain.Visibility) (*domain.Chat, error) {
	chat, err := s.Owned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	var sharePath *string
	switch visibility {
	case domain.VisibilityPrivate:
	case domain.VisibilityPublic:
		sharePath = chat.SharePath
		if sharePath == nil {
			p, err := newSharePath()
			if err != nil {
				return nil, err
			}
			sharePath = &p
		}
	default:
		return nil, domain.ErrBadVisibility
	}

	row, err := s.store.UpdateChatVisibility(ctx, sqlc.UpdateChatVisibilityParams{
		ID:         chatID,
		UserID:     userID,
		Visibility: string(visibility),
		SharePath:  sharePath,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: share path collision", domain.ErrTransactionConflict)
		}
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

func newSharePath() (string, error) {
	b := make([]byte, config.SharePathBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share path: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *ChatService) SetPinned(ctx context.Context, userID int64, chatID uuid.UUID, pinned bool) (*domain.Chat, error) {
	row, err := s.store.SetChatPinned(ctx, sqlc.SetChatPinnedParams{Pinned: pinned, ID: chatID, UserID: userID})
	if err != nil {
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

func (s *ChatService) SetArchived(ctx context.Context, userID int64, chatID uuid.UUID, archived bool) (*domain.Chat, error) {
	row, err := s.store.SetChatArchived(ctx, sqlc.SetChatArchivedParams{Archived: archived, ID: chatID, UserID: userID})
	if err != nil {
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

func (s *ChatService) SetModel(ctx context.Context, userID int64, chatID uuid.UUID, model string) (*domain.Chat, error) {
	row, err := s.store.UpdateChatModel(ctx, sqlc.UpdateChatModelParams{ID: chatID, UserID: userID, Model: model})
	if err != nil {
		return nil, chatLookupError(err)
	}
	return rowToChat(row), nil
}

// Delete removes the chat with all of its messages and branches.
func (s *ChatService) Delete(ctx context.Context, userID int64, chatID uuid.UUID) error {
	n, err := s.store.DeleteChat(ctx, sqlc.DeleteChatParams{ID: chatID, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

// SelectBranch moves the active pointer to a branch of the same chat.
func (s *ChatService) SelectBranch(ctx context.Context, userID int64, chatID, branchID uuid.UUID) (*domain.Chat, error) {
	var chat *domain.Chat
	err := s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		row, err := q.GetChatForUpdate(ctx, chatID)
		if err != nil {
			return chatLookupError(err)
		}
		if row.UserID != userID {
			return domain.ErrChatNotFound
		}

		if _, err := q.GetBranch(ctx, sqlc.GetBranchParams{ID: branchID, ChatID: chatID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBranchNotFound
			}
			return fmt.Errorf("get branch: %w", err)
		}

		if err := q.SetChatActiveBranch(ctx, sqlc.SetChatActiveBranchParams{ID: chatID, ActiveBranchID: &branchID}); err != nil {
			return fmt.Errorf("set active branch: %w", err)
		}
		row.ActiveBranchID = &branchID
		chat = rowToChat(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Versions lists the variants of messageID as seen from currentBranchID, or
// from the active branch when it is nil.
func (s *ChatService) Versions(ctx context.Context, userID int64, chatID, messageID uuid.UUID, currentBranchID *uuid.UUID) (*VersionsView, error) {
	chat, err := s.Owned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	current := currentBranchID
	if current == nil {
		branch, err := s.branches.EnsureDefaultBranch(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, domain.ErrChatNotFound
		}
		current = &branch.ID
	}

	list, err := s.resolver.ListVersionBranchesForMessage(ctx, VersionQuery{
		ChatID:          chat.ID,
		MessageID:       messageID,
		CurrentBranchID: *current,
	})
	if err != nil {
		return nil, err
	}
	return &VersionsView{
		CurrentBranchID: *current,
		CurrentIndex:    list.CurrentIndex(*current),
		Options:         list.Options,
	}, nil
}

// TruncateAfter drops every message of the chat newer than messageID.
func (s *ChatService) TruncateAfter(ctx context.Context, userID int64, chatID, messageID uuid.UUID) (int64, error) {
	if _, err := s.Owned(ctx, userID, chatID); err != nil {
		return 0, err
	}
	// An unknown reference message deletes nothing.
	return s.messages.DeleteMessagesCreatedAfter(ctx, chatID, messageID)
}

func (s *ChatService) Branches(ctx context.Context, userID int64, chatID uuid.UUID) ([]*domain.Branch, error) {
	if _, err := s.Owned(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.branches.ListBranches(ctx, chatID)
}
