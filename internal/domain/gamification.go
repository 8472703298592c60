package domain

import "context"

// GamificationHook receives fire-and-forget notifications about newly
// cast votes. Callers ignore failures; implementations should not
// block the vote path.
type GamificationHook interface {
	NotifyVote(ctx context.Context, voter Identity, itemID, categoryID string) error
	CheckBadges(ctx context.Context, voter Identity, categoryID string) error
}
