package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

type Chat struct {
	ID             uuid.UUID
	UserID         int64
	Title          string
	ActiveBranchID *uuid.UUID
	Visibility     Visibility
	SharePath      *string
	Model          string
	ArchivedAt     *time.Time
	PinnedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Role      Role
	Content   Content
	CreatedAt time.Time
}

type MessageVersion struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	Content   Content
	CreatedAt time.Time
}

// Branch is an ordered view over a subset of a chat's messages. A branch with
// a parent always has a fork message.
type Branch struct {
	ID             uuid.UUID
	ChatID         uuid.UUID
	ParentBranchID *uuid.UUID
	ForkMessageID  *uuid.UUID
	ForkVersionID  *uuid.UUID
	CreatedAt      time.Time
}

func (b *Branch) IsRoot() bool {
	return b.ParentBranchID == nil
}

// ForkedAt reports whether the branch diverged from its parent at messageID.
func (b *Branch) ForkedAt(messageID uuid.UUID) bool {
	return b.ForkMessageID != nil && *b.ForkMessageID == messageID
}

type BranchMessage struct {
	BranchID  uuid.UUID
	MessageID uuid.UUID
	VersionID *uuid.UUID
	Position  int
}

// ResolvedMessage is a branch row with the version override already applied.
type ResolvedMessage struct {
	MessageID uuid.UUID
	VersionID *uuid.UUID
	Role      Role
	Content   Content
	CreatedAt time.Time
	Position  int
}

type VersionOption struct {
	BranchID  uuid.UUID
	VersionID *uuid.UUID
	Content   Content
}

// VersionList is the navigable set of variants of one message: the content
// on the base branch first, then each edit-fork in creation order.
type VersionList struct {
	MessageID     uuid.UUID
	ScopeBranchID uuid.UUID
	BaseBranchID  uuid.UUID
	Options       []VersionOption
}

// CurrentIndex returns the zero-based option index for branchID, or 0 when the
// branch is not literally one of the options.
func (l *VersionList) CurrentIndex(branchID uuid.UUID) int {
	for i, o := range l.Options {
		if o.BranchID == branchID {
			return i
		}
	}
	return 0
}
