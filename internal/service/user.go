package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

const tokenPrefix = "mc_"

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// HashToken is the lookup key stored for a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func userLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("get user: %w", err)
}

// Authenticate resolves a bearer token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	hash := HashToken(token)
	row, err := s.store.GetUserByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	if err := s.store.TouchAPIToken(ctx, hash); err != nil {
		slog.Warn("failed to touch api token", "error", err, "user_id", row.ID)
	}
	return rowToUser(row), nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return rowToUser(row), nil
}

// Create registers a user and issues its first API token. The plain token is
// only returned here; the store keeps its hash.
func (s *UserService) Create(ctx context.Context, email, displayName string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", fmt.Errorf("%w: email is required", domain.ErrInvalidRequest)
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}

	var user *domain.User
	err = s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		row, err := q.CreateUser(ctx, sqlc.CreateUserParams{Email: email, DisplayName: displayName})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := q.CreateAPIToken(ctx, sqlc.CreateAPITokenParams{TokenHash: HashToken(token), UserID: row.ID}); err != nil {
			return fmt.Errorf("create api token: %w", err)
		}
		user = rowToUser(row)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken adds another API token for an existing user.
func (s *UserService) IssueToken(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.store.CreateAPIToken(ctx, sqlc.CreateAPITokenParams{TokenHash: HashToken(token), UserID: userID}); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("create api token: %w", err)
	}
	return token, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(b), nil
}

func (s *UserService) SetSelectedModel(ctx context.Context, userID int64, modelID string) error {
	return s.store.UpdateUserSelectedModel(ctx, sqlc.UpdateUserSelectedModelParams{
		ID:            userID,
		SelectedModel: modelID,
	})
}

func (s *UserService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > config.TransactionsPerPage {
		limit = config.TransactionsPerPage
	}
	rows, err := s.store.ListUserTransactions(ctx, sqlc.ListUserTransactionsParams{
		UserID: userID,
		Limit:  int32(limit),
		Offset: int32(max(offset, 0)),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, rowToTransaction(r))
	}
	return txs, nil
}
