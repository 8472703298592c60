package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the profile record behind an authenticated identity.
// VoteCount is a denormalized tally of the user's live votes; it is
// bumped on new casts and deletes, never on vote changes.
type User struct {
	ID        uuid.UUID
	Username  string
	VoteCount int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepository abstracts user profile persistence. Profile rows are
// created lazily on an identity's first authenticated contact; the
// auth provider owns the id and the real username.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// Create inserts a profile row for the given id. Creating an id
	// that already exists returns the existing profile unchanged.
	Create(ctx context.Context, userID uuid.UUID, username string) (*User, error)
	// IncrementVoteCount adjusts the denormalized vote tally by delta,
	// clamped at zero.
	IncrementVoteCount(ctx context.Context, userID uuid.UUID, delta int64) error
}
