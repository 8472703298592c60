package gamification

import (
	"context"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

// Noop is used when no gamification endpoint is configured.
type Noop struct{}

func (Noop) NotifyVote(context.Context, domain.Identity, string, string) error { return nil }
func (Noop) CheckBadges(context.Context, domain.Identity, string) error        { return nil }

var _ domain.GamificationHook = Noop{}
