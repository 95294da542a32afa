package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

func (s *Store) CreateBranch(ctx context.Context, arg sqlc.CreateBranchParams) (sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.chats[arg.ChatID]; !ok {
		return sqlc.Branch{}, fkViolation("branches_chat_id_fkey")
	}
	if arg.ParentBranchID != nil {
		if _, ok := s.st.branches[*arg.ParentBranchID]; !ok {
			return sqlc.Branch{}, fkViolation("branches_parent_branch_id_fkey")
		}
		if arg.ForkMessageID == nil {
			return sqlc.Branch{}, checkViolation("branches_check")
		}
	}
	if arg.ForkMessageID != nil {
		if _, ok := s.st.messages[*arg.ForkMessageID]; !ok {
			return sqlc.Branch{}, fkViolation("branches_fork_message_id_fkey")
		}
	}
	if arg.ForkVersionID != nil {
		if _, ok := s.st.versions[*arg.ForkVersionID]; !ok {
			return sqlc.Branch{}, fkViolation("branches_fork_version_id_fkey")
		}
	}
	b := sqlc.Branch{
		ID:             arg.ID,
		ChatID:         arg.ChatID,
		ParentBranchID: arg.ParentBranchID,
		ForkMessageID:  arg.ForkMessageID,
		ForkVersionID:  arg.ForkVersionID,
		CreatedAt:      s.now(),
	}
	s.st.branches[b.ID] = b
	return b, nil
}

func (s *Store) GetBranch(ctx context.Context, arg sqlc.GetBranchParams) (sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.branches[arg.ID]
	if !ok || b.ChatID != arg.ChatID {
		return sqlc.Branch{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *Store) GetBranchByID(ctx context.Context, id uuid.UUID) (sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.branches[id]
	if !ok {
		return sqlc.Branch{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *Store) LockBranch(ctx context.Context, id uuid.UUID) (sqlc.Branch, error) {
	return s.GetBranchByID(ctx, id)
}

func (s *Store) GetRootBranch(ctx context.Context, chatID uuid.UUID) (sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.sortedBranchesLocked(func(b sqlc.Branch) bool {
		return b.ChatID == chatID && b.ParentBranchID == nil
	}) {
		return b, nil
	}
	return sqlc.Branch{}, pgx.ErrNoRows
}

func (s *Store) ListSiblingBranches(ctx context.Context, arg sqlc.ListSiblingBranchesParams) ([]sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBranchesLocked(func(b sqlc.Branch) bool {
		return b.ChatID == arg.ChatID &&
			b.ParentBranchID != nil && *b.ParentBranchID == arg.ParentBranchID &&
			b.ForkMessageID != nil && *b.ForkMessageID == arg.ForkMessageID
	}), nil
}

func (s *Store) ListChatBranches(ctx context.Context, chatID uuid.UUID) ([]sqlc.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBranchesLocked(func(b sqlc.Branch) bool { return b.ChatID == chatID }), nil
}

func (s *Store) sortedBranchesLocked(match func(sqlc.Branch) bool) []sqlc.Branch {
	var items []sqlc.Branch
	for _, b := range s.st.branches {
		if match(b) {
			items = append(items, b)
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

// deleteBranchesLocked removes branches and, through parent_branch_id, all of
// their descendants. Chats pointing at a removed branch get a NULL pointer.
func (s *Store) deleteBranchesLocked(ids []uuid.UUID) {
	gone := make(map[uuid.UUID]bool)
	queue := append([]uuid.UUID(nil), ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if gone[id] {
			continue
		}
		gone[id] = true
		for childID, b := range s.st.branches {
			if b.ParentBranchID != nil && *b.ParentBranchID == id {
				queue = append(queue, childID)
			}
		}
	}
	for id := range gone {
		delete(s.st.branches, id)
		delete(s.st.branchMsgs, id)
	}
	for id, c := range s.st.chats {
		if c.ActiveBranchID != nil && gone[*c.ActiveBranchID] {
			c.ActiveBranchID = nil
			s.st.chats[id] = c
		}
	}
}

// Branch messages

func (s *Store) GetLastBranchPosition(ctx context.Context, branchID uuid.UUID) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := int32(-1)
	for _, r := range s.st.branchMsgs[branchID] {
		if r.Position > last {
			last = r.Position
		}
	}
	return last, nil
}

func (s *Store) CompactBranchPositions(ctx context.Context, chatID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved int64
	for id, b := range s.st.branches {
		if b.ChatID != chatID {
			continue
		}
		rows := s.st.branchMsgs[id]
		for i := range rows {
			if rows[i].Position != int32(i) {
				rows[i].Position = int32(i)
				moved++
			}
		}
	}
	return moved, nil
}

func (s *Store) InsertBranchMessage(ctx context.Context, arg sqlc.InsertBranchMessageParams) (sqlc.BranchMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := sqlc.BranchMessage{
		BranchID:  arg.BranchID,
		MessageID: arg.MessageID,
		VersionID: arg.VersionID,
		Position:  arg.Position,
	}
	if err := s.insertBranchMessageLocked(row); err != nil {
		return sqlc.BranchMessage{}, err
	}
	return row, nil
}

func (s *Store) insertBranchMessageLocked(row sqlc.BranchMessage) error {
	if _, ok := s.st.branches[row.BranchID]; !ok {
		return fkViolation("branch_messages_branch_id_fkey")
	}
	if _, ok := s.st.messages[row.MessageID]; !ok {
		return fkViolation("branch_messages_message_id_fkey")
	}
	if row.VersionID != nil {
		if _, ok := s.st.versions[*row.VersionID]; !ok {
			return fkViolation("branch_messages_version_id_fkey")
		}
	}
	for _, r := range s.st.branchMsgs[row.BranchID] {
		if r.Position == row.Position {
			return uniqueViolation("branch_messages_pkey")
		}
		if r.MessageID == row.MessageID {
			return uniqueViolation("branch_messages_branch_id_message_id_key")
		}
	}
	rows := append(s.st.branchMsgs[row.BranchID], row)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	s.st.branchMsgs[row.BranchID] = rows
	return nil
}

func (s *Store) BackfillBranchMessages(ctx context.Context, arg sqlc.BackfillBranchMessagesParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.chatMessagesLocked(arg.ChatID)
	for i, m := range msgs {
		row := sqlc.BranchMessage{BranchID: arg.BranchID, MessageID: m.ID, Position: int32(i)}
		if err := s.insertBranchMessageLocked(row); err != nil {
			return 0, err
		}
	}
	return int64(len(msgs)), nil
}

func (s *Store) CopyBranchMessagesUpTo(ctx context.Context, arg sqlc.CopyBranchMessagesUpToParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range append([]sqlc.BranchMessage(nil), s.st.branchMsgs[arg.SourceBranchID]...) {
		if r.Position > arg.MaxPosition {
			continue
		}
		r.BranchID = arg.NewBranchID
		if err := s.insertBranchMessageLocked(r); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (s *Store) GetBranchMessage(ctx context.Context, arg sqlc.GetBranchMessageParams) (sqlc.BranchMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.branchMsgs[arg.BranchID] {
		if r.MessageID == arg.MessageID {
			return r, nil
		}
	}
	return sqlc.BranchMessage{}, pgx.ErrNoRows
}

func (s *Store) SetBranchMessageVersion(ctx context.Context, arg sqlc.SetBranchMessageVersionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if arg.VersionID != nil {
		if _, ok := s.st.versions[*arg.VersionID]; !ok {
			return fkViolation("branch_messages_version_id_fkey")
		}
	}
	rows := s.st.branchMsgs[arg.BranchID]
	for i := range rows {
		if rows[i].MessageID == arg.MessageID {
			rows[i].VersionID = arg.VersionID
		}
	}
	return nil
}

func (s *Store) ListBranchMessages(ctx context.Context, branchID uuid.UUID) ([]sqlc.BranchMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sqlc.BranchMessage(nil), s.st.branchMsgs[branchID]...), nil
}

func (s *Store) resolveLocked(r sqlc.BranchMessage) sqlc.ResolveBranchMessagesRow {
	m := s.st.messages[r.MessageID]
	content := m.Content
	if r.VersionID != nil {
		if v, ok := s.st.versions[*r.VersionID]; ok {
			content = v.Content
		}
	}
	return sqlc.ResolveBranchMessagesRow{
		MessageID: r.MessageID,
		VersionID: r.VersionID,
		Role:      m.Role,
		Content:   content,
		CreatedAt: m.CreatedAt,
		Position:  r.Position,
	}
}

func (s *Store) ResolveBranchMessages(ctx context.Context, branchID uuid.UUID) ([]sqlc.ResolveBranchMessagesRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []sqlc.ResolveBranchMessagesRow
	for _, r := range s.st.branchMsgs[branchID] {
		items = append(items, s.resolveLocked(r))
	}
	return items, nil
}

func (s *Store) ResolveBranchMessage(ctx context.Context, arg sqlc.ResolveBranchMessageParams) (sqlc.ResolveBranchMessageRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.branchMsgs[arg.BranchID] {
		if r.MessageID == arg.MessageID {
			return sqlc.ResolveBranchMessageRow(s.resolveLocked(r)), nil
		}
	}
	return sqlc.ResolveBranchMessageRow{}, pgx.ErrNoRows
}
