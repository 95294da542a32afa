package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

func (s *Store) CreateMessage(ctx context.Context, arg sqlc.CreateMessageParams) (sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.chats[arg.ChatID]; !ok {
		return sqlc.Message{}, fkViolation("messages_chat_id_fkey")
	}
	if _, ok := s.st.messages[arg.ID]; ok {
		return sqlc.Message{}, uniqueViolation("messages_pkey")
	}
	m := sqlc.Message{
		ID:        arg.ID,
		ChatID:    arg.ChatID,
		Role:      arg.Role,
		Content:   append([]byte(nil), arg.Content...),
		CreatedAt: s.now(),
	}
	s.st.messages[m.ID] = m
	return m, nil
}

func (s *Store) GetMessage(ctx context.Context, arg sqlc.GetMessageParams) (sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.messages[arg.ID]
	if !ok || m.ChatID != arg.ChatID {
		return sqlc.Message{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *Store) GetMessageByID(ctx context.Context, id uuid.UUID) (sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.messages[id]
	if !ok {
		return sqlc.Message{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *Store) ListChatMessages(ctx context.Context, chatID uuid.UUID) ([]sqlc.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatMessagesLocked(chatID), nil
}

func (s *Store) chatMessagesLocked(chatID uuid.UUID) []sqlc.Message {
	var items []sqlc.Message
	for _, m := range s.st.messages {
		if m.ChatID == chatID {
			items = append(items, m)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Time.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.Time.Before(b.CreatedAt.Time)
		}
		return a.ID.String() < b.ID.String()
	})
	return items
}

func (s *Store) DeleteMessagesCreatedAfter(ctx context.Context, arg sqlc.DeleteMessagesCreatedAfterParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.st.messages[arg.MessageID]
	if !ok || ref.ChatID != arg.ChatID {
		return 0, nil
	}
	var ids []uuid.UUID
	for id, m := range s.st.messages {
		if m.ChatID == arg.ChatID && m.CreatedAt.Time.After(ref.CreatedAt.Time) {
			ids = append(ids, id)
		}
	}
	s.deleteMessagesLocked(ids)
	return int64(len(ids)), nil
}

func (s *Store) CreateMessageVersion(ctx context.Context, arg sqlc.CreateMessageVersionParams) (sqlc.MessageVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.messages[arg.MessageID]; !ok {
		return sqlc.MessageVersion{}, fkViolation("message_versions_message_id_fkey")
	}
	v := sqlc.MessageVersion{
		ID:        arg.ID,
		MessageID: arg.MessageID,
		Content:   append([]byte(nil), arg.Content...),
		CreatedAt: s.now(),
	}
	s.st.versions[v.ID] = v
	return v, nil
}

func (s *Store) GetMessageVersion(ctx context.Context, id uuid.UUID) (sqlc.MessageVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.st.versions[id]
	if !ok {
		return sqlc.MessageVersion{}, pgx.ErrNoRows
	}
	return v, nil
}

// deleteMessagesLocked removes messages with the schema's cascades: versions,
// branch rows and branches forked at a removed message go with them.
func (s *Store) deleteMessagesLocked(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}

	var forked []uuid.UUID
	for id, b := range s.st.branches {
		if b.ForkMessageID != nil && gone[*b.ForkMessageID] {
			forked = append(forked, id)
		}
	}
	s.deleteBranchesLocked(forked)

	goneVersions := make(map[uuid.UUID]bool)
	for id, v := range s.st.versions {
		if gone[v.MessageID] {
			goneVersions[id] = true
			delete(s.st.versions, id)
		}
	}

	for branchID, rows := range s.st.branchMsgs {
		kept := rows[:0]
		for _, r := range rows {
			if gone[r.MessageID] {
				continue
			}
			if r.VersionID != nil && goneVersions[*r.VersionID] {
				r.VersionID = nil
			}
			kept = append(kept, r)
		}
		s.st.branchMsgs[branchID] = kept
	}
	for id, b := range s.st.branches {
		if b.ForkVersionID != nil && goneVersions[*b.ForkVersionID] {
			b.ForkVersionID = nil
			s.st.branches[id] = b
		}
	}

	for id := range gone {
		delete(s.st.messages, id)
	}
}
