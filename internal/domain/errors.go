package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrUpstream            = errors.New("upstream failure")
	ErrInvalidRequest      = errors.New("invalid request")

	ErrChatNotFound    = fmt.Errorf("chat %w", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	ErrBranchNotFound  = fmt.Errorf("branch %w", ErrNotFound)
	ErrVersionNotFound = fmt.Errorf("message version %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrModelNotFound   = fmt.Errorf("model %w", ErrNotFound)
	ErrShareNotFound   = fmt.Errorf("shared chat %w", ErrNotFound)

	// ErrMessageNotOnBranch is both NotFound and InvalidState.
	ErrMessageNotOnBranch = fmt.Errorf("message has no row on branch: %w: %w", ErrNotFound, ErrInvalidState)

	ErrNoMessages    = fmt.Errorf("%w: no messages", ErrInvalidRequest)
	ErrEmptyContent  = fmt.Errorf("%w: empty content", ErrInvalidRequest)
	ErrUnknownPart   = fmt.Errorf("%w: unknown content part type", ErrInvalidRequest)
	ErrUnknownPlan   = fmt.Errorf("%w: unknown premium plan", ErrInvalidRequest)
	ErrBadVisibility = fmt.Errorf("%w: visibility must be public or private", ErrInvalidRequest)

	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRateLimited         = errors.New("rate limit exceeded")
)
