package domain

import (
	"context"
	"time"
)

// ApplyResult describes what an ApplyVote call did.
type ApplyResult struct {
	Aggregate ItemAggregate
	Change    bool      // an existing vote of a different type was replaced
	NoOp      bool      // same type re-vote, nothing was written
	Previous  *VoteType // prior vote type when Change is true
}

// VoteStore is the transactional store backing the vote ledger, the
// per-item aggregates, and the per-identity rate counters.
//
// ApplyVote and RemoveVote must be atomic across all three record
// kinds: concurrent calls for the same (voter, item) pair serialize
// through the store's transaction mechanism and either commit fully or
// leave no trace. On optimistic conflicts they return ErrTxConflict.
type VoteStore interface {
	// GetVote returns the ledger entry for the pair, or nil when the
	// voter has not voted on the item.
	GetVote(ctx context.Context, voter Identity, itemID string) (*VoteRecord, error)

	// GetRateState returns the raw counters for the identity, zeroed
	// for identities that have never voted. Rollover is the caller's
	// concern.
	GetRateState(ctx context.Context, voter Identity) (RateLimitState, error)

	// GetAggregate returns the item tallies, zeroed when the item has
	// no votes yet.
	GetAggregate(ctx context.Context, itemID string) (ItemAggregate, error)

	// ApplyVote atomically upserts the ledger entry, bumps the voter's
	// rate counters, and applies the aggregate deltas for a new vote
	// or a vote change. A same-type re-vote is a no-op. It returns
	// ErrAlreadyVoted when the existing record is no longer mutable.
	ApplyVote(ctx context.Context, voter Identity, itemID string, vote VoteType, now time.Time) (*ApplyResult, error)

	// RemoveVote atomically deletes the ledger entry and decrements
	// the matching aggregate counter and the total. It returns the
	// removed vote type, or nil when no record existed.
	RemoveVote(ctx context.Context, voter Identity, itemID string, now time.Time) (*VoteType, error)
}
