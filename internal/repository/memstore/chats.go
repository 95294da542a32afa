package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

func (s *Store) CreateChat(ctx context.Context, arg sqlc.CreateChatParams) (sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.users[arg.UserID]; !ok {
		return sqlc.Chat{}, fkViolation("chats_user_id_fkey")
	}
	if _, ok := s.st.chats[arg.ID]; ok {
		return sqlc.Chat{}, uniqueViolation("chats_pkey")
	}
	now := s.now()
	c := sqlc.Chat{
		ID:         arg.ID,
		UserID:     arg.UserID,
		Title:      arg.Title,
		Visibility: "private",
		Model:      arg.Model,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.st.chats[c.ID] = c
	return c, nil
}

func (s *Store) GetChat(ctx context.Context, arg sqlc.GetChatParams) (sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chats[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return sqlc.Chat{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetChatByID(ctx context.Context, id uuid.UUID) (sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chats[id]
	if !ok {
		return sqlc.Chat{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetChatForUpdate(ctx context.Context, id uuid.UUID) (sqlc.Chat, error) {
	return s.GetChatByID(ctx, id)
}

func (s *Store) GetChatBySharePath(ctx context.Context, sharePath string) (sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.chats {
		if c.SharePath != nil && *c.SharePath == sharePath && c.Visibility == "public" {
			return c, nil
		}
	}
	return sqlc.Chat{}, pgx.ErrNoRows
}

func (s *Store) ListChats(ctx context.Context, arg sqlc.ListChatsParams) ([]sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []sqlc.Chat
	for _, c := range s.st.chats {
		if c.UserID != arg.UserID {
			continue
		}
		if !arg.IncludeArchived && c.ArchivedAt.Valid {
			continue
		}
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.PinnedAt.Valid != b.PinnedAt.Valid {
			return a.PinnedAt.Valid
		}
		if a.PinnedAt.Valid && !a.PinnedAt.Time.Equal(b.PinnedAt.Time) {
			return a.PinnedAt.Time.After(b.PinnedAt.Time)
		}
		if !a.UpdatedAt.Time.Equal(b.UpdatedAt.Time) {
			return a.UpdatedAt.Time.After(b.UpdatedAt.Time)
		}
		return a.ID.String() < b.ID.String()
	})
	return page(items, arg.RowLimit, arg.RowOffset), nil
}

// updateChat applies fn to the chat owned by userID, mirroring an
// UPDATE ... WHERE id = $1 AND user_id = $2 RETURNING *.
func (s *Store) updateChat(id uuid.UUID, userID int64, fn func(c *sqlc.Chat) error) (sqlc.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chats[id]
	if !ok || c.UserID != userID {
		return sqlc.Chat{}, pgx.ErrNoRows
	}
	if err := fn(&c); err != nil {
		return sqlc.Chat{}, err
	}
	s.st.chats[id] = c
	return c, nil
}

func (s *Store) UpdateChatTitle(ctx context.Context, arg sqlc.UpdateChatTitleParams) (sqlc.Chat, error) {
	return s.updateChat(arg.ID, arg.UserID, func(c *sqlc.Chat) error {
		c.Title = arg.Title
		c.UpdatedAt = s.now()
		return nil
	})
}

func (s *Store) UpdateChatVisibility(ctx context.Context, arg sqlc.UpdateChatVisibilityParams) (sqlc.Chat, error) {
	return s.updateChat(arg.ID, arg.UserID, func(c *sqlc.Chat) error {
		if arg.SharePath != nil {
			for _, other := range s.st.chats {
				if other.ID != c.ID && other.SharePath != nil && *other.SharePath == *arg.SharePath {
					return uniqueViolation("chats_share_path_key")
				}
			}
		}
		c.Visibility = arg.Visibility
		c.SharePath = arg.SharePath
		c.UpdatedAt = s.now()
		return nil
	})
}

func (s *Store) SetChatPinned(ctx context.Context, arg sqlc.SetChatPinnedParams) (sqlc.Chat, error) {
	return s.updateChat(arg.ID, arg.UserID, func(c *sqlc.Chat) error {
		c.PinnedAt = pgtype.Timestamptz{}
		if arg.Pinned {
			c.PinnedAt = s.now()
		}
		return nil
	})
}

func (s *Store) SetChatArchived(ctx context.Context, arg sqlc.SetChatArchivedParams) (sqlc.Chat, error) {
	return s.updateChat(arg.ID, arg.UserID, func(c *sqlc.Chat) error {
		c.ArchivedAt = pgtype.Timestamptz{}
		if arg.Archived {
			c.ArchivedAt = s.now()
		}
		return nil
	})
}

func (s *Store) UpdateChatModel(ctx context.Context, arg sqlc.UpdateChatModelParams) (sqlc.Chat, error) {
	return s.updateChat(arg.ID, arg.UserID, func(c *sqlc.Chat) error {
		c.Model = arg.Model
		c.UpdatedAt = s.now()
		return nil
	})
}

func (s *Store) SetChatActiveBranch(ctx context.Context, arg sqlc.SetChatActiveBranchParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chats[arg.ID]
	if !ok {
		return nil
	}
	if arg.ActiveBranchID != nil {
		if _, ok := s.st.branches[*arg.ActiveBranchID]; !ok {
			return fkViolation("chats_active_branch_fk")
		}
	}
	c.ActiveBranchID = arg.ActiveBranchID
	s.st.chats[arg.ID] = c
	return nil
}

func (s *Store) TouchChat(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.st.chats[id]; ok {
		c.UpdatedAt = s.now()
		s.st.chats[id] = c
	}
	return nil
}

func (s *Store) DeleteChat(ctx context.Context, arg sqlc.DeleteChatParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chats[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return 0, nil
	}
	var branchIDs []uuid.UUID
	for id, b := range s.st.branches {
		if b.ChatID == c.ID {
			branchIDs = append(branchIDs, id)
		}
	}
	s.deleteBranchesLocked(branchIDs)

	var msgIDs []uuid.UUID
	for id, m := range s.st.messages {
		if m.ChatID == c.ID {
			msgIDs = append(msgIDs, id)
		}
	}
	s.deleteMessagesLocked(msgIDs)

	for i, t := range s.st.transactions {
		if t.ChatID != nil && *t.ChatID == c.ID {
			s.st.transactions[i].ChatID = nil
		}
	}
	delete(s.st.chats, c.ID)
	return 1, nil
}
