// Package memstore is an in-memory repository.Store used by tests. It keeps
// the referential behaviour of the Postgres schema (cascades, SET NULL,
// unique keys) and runs transactions one at a time with rollback on error.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
)

type rateKey struct {
	userID int64
	window time.Time
}

type state struct {
	users        map[int64]sqlc.User
	tokens       map[string]sqlc.ApiToken
	chats        map[uuid.UUID]sqlc.Chat
	messages     map[uuid.UUID]sqlc.Message
	versions     map[uuid.UUID]sqlc.MessageVersion
	branches     map[uuid.UUID]sqlc.Branch
	branchMsgs   map[uuid.UUID][]sqlc.BranchMessage
	transactions []sqlc.Transaction
	rateLimits   map[rateKey]int32
	nextUserID   int64
	nextTxID     int64
}

func newState() *state {
	return &state{
		users:      make(map[int64]sqlc.User),
		tokens:     make(map[string]sqlc.ApiToken),
		chats:      make(map[uuid.UUID]sqlc.Chat),
		messages:   make(map[uuid.UUID]sqlc.Message),
		versions:   make(map[uuid.UUID]sqlc.MessageVersion),
		branches:   make(map[uuid.UUID]sqlc.Branch),
		branchMsgs: make(map[uuid.UUID][]sqlc.BranchMessage),
		rateLimits: make(map[rateKey]int32),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.tokens {
		c.tokens[k] = v
	}
	for k, v := range st.chats {
		c.chats[k] = v
	}
	for k, v := range st.messages {
		c.messages[k] = v
	}
	for k, v := range st.versions {
		c.versions[k] = v
	}
	for k, v := range st.branches {
		c.branches[k] = v
	}
	for k, v := range st.branchMsgs {
		c.branchMsgs[k] = append([]sqlc.BranchMessage(nil), v...)
	}
	for k, v := range st.rateLimits {
		c.rateLimits[k] = v
	}
	c.transactions = append([]sqlc.Transaction(nil), st.transactions...)
	c.nextUserID = st.nextUserID
	c.nextTxID = st.nextTxID
	return c
}

var _ repository.Store = (*Store)(nil)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	last time.Time
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) ExecTx(ctx context.Context, fn func(q sqlc.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// now is strictly increasing so rows written back to back keep their order,
// like clock_timestamp() in Postgres.
func (s *Store) now() pgtype.Timestamptz {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return ts(t)
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func fkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", Message: "foreign key violation", ConstraintName: constraint}
}

func checkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23514", Message: "check constraint violation", ConstraintName: constraint}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: constraint}
}

// Users

func (s *Store) GetUserByID(ctx context.Context, id int64) (sqlc.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return sqlc.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserForUpdate(ctx context.Context, id int64) (sqlc.User, error) {
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByTokenHash(ctx context.Context, tokenHash string) (sqlc.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tokens[tokenHash]
	if !ok {
		return sqlc.User{}, pgx.ErrNoRows
	}
	u, ok := s.st.users[t.UserID]
	if !ok {
		return sqlc.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *Store) TouchAPIToken(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.st.tokens[tokenHash]; ok {
		t.LastUsedAt = s.now()
		s.st.tokens[tokenHash] = t
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, arg sqlc.CreateUserParams) (sqlc.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Email == arg.Email {
			return sqlc.User{}, uniqueViolation("users_email_key")
		}
	}
	s.st.nextUserID++
	now := s.now()
	u := sqlc.User{
		ID:          s.st.nextUserID,
		Email:       arg.Email,
		DisplayName: arg.DisplayName,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.st.users[u.ID] = u
	return u, nil
}

func (s *Store) CreateAPIToken(ctx context.Context, arg sqlc.CreateAPITokenParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.users[arg.UserID]; !ok {
		return fkViolation("api_tokens_user_id_fkey")
	}
	if _, ok := s.st.tokens[arg.TokenHash]; ok {
		return uniqueViolation("api_tokens_pkey")
	}
	s.st.tokens[arg.TokenHash] = sqlc.ApiToken{TokenHash: arg.TokenHash, UserID: arg.UserID, CreatedAt: s.now()}
	return nil
}

func (s *Store) UpdateUserBalance(ctx context.Context, arg sqlc.UpdateUserBalanceParams) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[arg.ID]
	if !ok {
		return decimal.Zero, pgx.ErrNoRows
	}
	u.Balance = u.Balance.Add(arg.Balance)
	u.UpdatedAt = s.now()
	s.st.users[u.ID] = u
	return u.Balance, nil
}

func (s *Store) SetUserPremiumUntil(ctx context.Context, arg sqlc.SetUserPremiumUntilParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.st.users[arg.ID]; ok {
		u.PremiumUntil = arg.PremiumUntil
		u.UpdatedAt = s.now()
		s.st.users[u.ID] = u
	}
	return nil
}

func (s *Store) UpdateUserSelectedModel(ctx context.Context, arg sqlc.UpdateUserSelectedModelParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.st.users[arg.ID]; ok {
		u.SelectedModel = arg.SelectedModel
		u.UpdatedAt = s.now()
		s.st.users[u.ID] = u
	}
	return nil
}

// Transactions and rate limits

func (s *Store) CreateTransaction(ctx context.Context, arg sqlc.CreateTransactionParams) (sqlc.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.users[arg.UserID]; !ok {
		return sqlc.Transaction{}, fkViolation("transactions_user_id_fkey")
	}
	s.st.nextTxID++
	t := sqlc.Transaction{
		ID:          s.st.nextTxID,
		UserID:      arg.UserID,
		Amount:      arg.Amount,
		TxType:      arg.TxType,
		Description: arg.Description,
		ChatID:      arg.ChatID,
		CreatedAt:   s.now(),
	}
	s.st.transactions = append(s.st.transactions, t)
	return t, nil
}

func (s *Store) ListUserTransactions(ctx context.Context, arg sqlc.ListUserTransactionsParams) ([]sqlc.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []sqlc.Transaction
	for i := len(s.st.transactions) - 1; i >= 0; i-- {
		if s.st.transactions[i].UserID == arg.UserID {
			items = append(items, s.st.transactions[i])
		}
	}
	return page(items, arg.Limit, arg.Offset), nil
}

func (s *Store) CheckAndIncrementRateLimit(ctx context.Context, userID int64) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rateKey{userID: userID, window: time.Now().UTC().Truncate(time.Minute)}
	s.st.rateLimits[key]++
	return s.st.rateLimits[key], nil
}

func (s *Store) CleanupRateLimits(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	for k := range s.st.rateLimits {
		if k.window.Before(cutoff) {
			delete(s.st.rateLimits, k)
		}
	}
	return nil
}

func page[T any](items []T, limit, offset int32) []T {
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}
