// Package app is the application layer: the vote manager that
// composes the store, the rate-limit policy, the user repository, and
// the gamification hook into the four public operations.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/metrics"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/retry"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/vote"
)

const (
	maxVoteRetries   = 3
	voteRetryBackoff = 300 * time.Millisecond
)

// Service is the vote manager. All public vote operations go through
// here; failures surface as result values with user-facing reasons,
// never as raw store errors.
type Service struct {
	store   domain.VoteStore
	users   domain.UserRepository
	hook    domain.GamificationHook
	clock   clockwork.Clock
	metrics *metrics.VoteMetrics

	statsGroup singleflight.Group

	retryPolicy retry.Policy

	// preventDuplicates re-runs the eligibility check inside CastVote.
	// Disabled only by tests exercising the store-level guards.
	preventDuplicates bool
}

func NewService(store domain.VoteStore, users domain.UserRepository, hook domain.GamificationHook, m *metrics.VoteMetrics, clock clockwork.Clock) *Service {
	s := &Service{
		store:             store,
		users:             users,
		hook:              hook,
		clock:             clock,
		metrics:           m,
		preventDuplicates: true,
	}
	s.retryPolicy = retry.Policy{
		MaxAttempts:    maxVoteRetries,
		InitialBackoff: voteRetryBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			if s.metrics != nil {
				s.metrics.RetriesTotal.Inc()
			}
			slog.Warn("Retrying vote transaction", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	return s
}

// classifyStoreErr decides whether a store failure is worth retrying.
// Eligibility violations detected inside the transaction are terminal;
// everything else (conflicts, timeouts) is treated as transient.
func classifyStoreErr(err error) retry.Action {
	if errors.Is(err, domain.ErrAlreadyVoted) {
		return retry.Stop
	}
	return retry.Retry
}

// CheckEligibility reports whether the voter may currently cast or
// change a vote on the item. The ledger is consulted first, then the
// rate limits, mirroring the externally observable reason contract:
// "already voted" for a frozen duplicate, limit messages otherwise.
func (s *Service) CheckEligibility(ctx context.Context, voter domain.Identity, itemID string) domain.Eligibility {
	if voter.Zero() {
		return domain.Eligibility{CanVote: false, Reason: vote.ReasonNoIdentity}
	}

	now := s.clock.Now()

	rec, err := s.store.GetVote(ctx, voter, itemID)
	if err != nil {
		slog.Error("Eligibility ledger read failed", "voter", voter.Key(), "item_id", itemID, "error", err)
		return domain.Eligibility{CanVote: false, Reason: vote.ReasonTryAgain}
	}

	elig := domain.Eligibility{}
	if rec != nil {
		if !rec.Mutable(voter, now) {
			prev := rec.Vote
			return domain.Eligibility{CanVote: false, Reason: vote.ReasonAlreadyVoted, Change: true, Previous: &prev}
		}
		prev := rec.Vote
		elig.Change = true
		elig.Previous = &prev
	}

	state, err := s.store.GetRateState(ctx, voter)
	if err != nil {
		slog.Error("Eligibility rate read failed", "voter", voter.Key(), "error", err)
		return domain.Eligibility{CanVote: false, Reason: vote.ReasonTryAgain}
	}

	allowed, reason := vote.CheckLimit(vote.Rollover(state, now), voter, now)
	if !allowed {
		elig.CanVote = false
		elig.Reason = reason
		return elig
	}

	elig.CanVote = true
	return elig
}

// CastVote records a vote for the voter on the item. The ledger
// upsert, the rate counters, and the aggregate deltas commit in one
// store transaction; transient failures are retried with linear
// backoff before the operation gives up.
func (s *Service) CastVote(ctx context.Context, voter domain.Identity, itemID string, vt domain.VoteType) domain.VoteResult {
	start := s.clock.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.CastDuration.Observe(s.clock.Since(start).Seconds())
		}
	}()

	if voter.Zero() {
		return s.failure(metrics.ResultRejected, vote.ReasonNoIdentity)
	}

	if s.preventDuplicates {
		if elig := s.CheckEligibility(ctx, voter, itemID); !elig.CanVote {
			return s.failure(metrics.ResultRejected, elig.Reason)
		}
	}

	res, err := retry.Do(ctx, s.retryPolicy, classifyStoreErr, func() (*domain.ApplyResult, error) {
		return s.store.ApplyVote(ctx, voter, itemID, vt, s.clock.Now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			return s.failure(metrics.ResultRejected, vote.ReasonAlreadyVoted)
		}
		slog.Error("Vote transaction failed", "voter", voter.Key(), "item_id", itemID, "error", err)
		return s.failure(metrics.ResultFailed, vote.ReasonTryAgain)
	}

	s.recordCastMetrics(res, vt)

	// The gamification award fires only for a genuinely new
	// authenticated vote. A change or re-vote never awards twice.
	if !res.NoOp && !res.Change && voter.Authenticated() {
		s.onNewUserVote(ctx, voter, itemID)
	}

	return domain.VoteResult{
		Success:   true,
		RateCount: res.Aggregate.RateCount,
		MehCount:  res.Aggregate.MehCount,
		HateCount: res.Aggregate.HateCount,
	}
}

// DeleteVote removes the voter's vote on the item. Absence of a prior
// vote is not an error: it returns false and changes nothing.
func (s *Service) DeleteVote(ctx context.Context, voter domain.Identity, itemID string) (bool, error) {
	if voter.Zero() {
		return false, domain.ErrNoIdentity
	}

	removed, err := retry.Do(ctx, s.retryPolicy, classifyStoreErr, func() (*domain.VoteType, error) {
		return s.store.RemoveVote(ctx, voter, itemID, s.clock.Now())
	})
	if err != nil {
		return false, err
	}
	if removed == nil {
		return false, nil
	}

	if voter.Authenticated() {
		s.adjustUserVoteCount(ctx, voter, -1)
	}

	if s.metrics != nil {
		s.metrics.VotesProcessed.WithLabelValues(metrics.ResultDeleted).Inc()
	}
	return true, nil
}

// GetStats is a pure read: item tallies with derived percentages plus
// the caller's own vote. Missing items yield all-zero stats rather
// than an error. Concurrent reads of a hot item collapse into a
// single store fetch.
func (s *Service) GetStats(ctx context.Context, voter domain.Identity, itemID string) (*domain.ItemStats, error) {
	aggAny, err, _ := s.statsGroup.Do(itemID, func() (any, error) {
		return s.store.GetAggregate(ctx, itemID)
	})
	if err != nil {
		return nil, err
	}
	agg := aggAny.(domain.ItemAggregate)

	stats := &domain.ItemStats{
		RateCount:      agg.RateCount,
		MehCount:       agg.MehCount,
		HateCount:      agg.HateCount,
		TotalVotes:     agg.TotalVotes,
		RatePercentage: agg.Percentage(domain.VoteRate),
		MehPercentage:  agg.Percentage(domain.VoteMeh),
		HatePercentage: agg.Percentage(domain.VoteHate),
	}

	if !voter.Zero() {
		rec, err := s.store.GetVote(ctx, voter, itemID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			vt := rec.Vote
			stats.UserVote = &vt
		}
	}

	return stats, nil
}

// GetProfile returns the authenticated voter's profile. A missing row
// is created on first contact with a generated handle; the auth
// provider renames it when it syncs the real username.
func (s *Service) GetProfile(ctx context.Context, voter domain.Identity) (*domain.User, error) {
	if s.users == nil || !voter.Authenticated() {
		return nil, domain.ErrUserNotFound
	}
	userID, err := uuid.Parse(voter.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return s.ensureProfile(ctx, userID)
	}
	return user, err
}

func (s *Service) ensureProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.Create(ctx, userID, "user-"+userID.String())
}

// onNewUserVote bumps the user's denormalized vote count and fires the
// gamification hook. Both are best-effort: failures are logged and
// never surface to the voter.
func (s *Service) onNewUserVote(ctx context.Context, voter domain.Identity, itemID string) {
	s.adjustUserVoteCount(ctx, voter, 1)

	if s.hook == nil {
		return
	}
	go func() {
		hookCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.hook.NotifyVote(hookCtx, voter, itemID, ""); err != nil {
			slog.Warn("Gamification notify failed", "voter", voter.Key(), "item_id", itemID, "error", err)
		}
		if err := s.hook.CheckBadges(hookCtx, voter, ""); err != nil {
			slog.Warn("Badge check failed", "voter", voter.Key(), "error", err)
		}
	}()
}

func (s *Service) adjustUserVoteCount(ctx context.Context, voter domain.Identity, delta int64) {
	if s.users == nil {
		return
	}
	userID, err := uuid.Parse(voter.ID)
	if err != nil {
		slog.Warn("Voter id is not a user uuid", "voter", voter.Key())
		return
	}
	err = s.users.IncrementVoteCount(ctx, userID, delta)
	if errors.Is(err, domain.ErrUserNotFound) && delta > 0 {
		// First authenticated contact: create the profile row, then
		// apply the bump it missed.
		if _, cerr := s.ensureProfile(ctx, userID); cerr == nil {
			err = s.users.IncrementVoteCount(ctx, userID, delta)
		}
	}
	if err != nil {
		slog.Warn("Vote count update failed", "user_id", voter.ID, "delta", delta, "error", err)
	}
}

func (s *Service) recordCastMetrics(res *domain.ApplyResult, vt domain.VoteType) {
	if s.metrics == nil {
		return
	}
	switch {
	case res.NoOp:
		s.metrics.VotesProcessed.WithLabelValues(metrics.ResultNoOp).Inc()
	case res.Change:
		s.metrics.VotesProcessed.WithLabelValues(metrics.ResultChanged).Inc()
		s.metrics.VotesByType.WithLabelValues(string(vt)).Inc()
	default:
		s.metrics.VotesProcessed.WithLabelValues(metrics.ResultAccepted).Inc()
		s.metrics.VotesByType.WithLabelValues(string(vt)).Inc()
	}
}

func (s *Service) failure(result, reason string) domain.VoteResult {
	if s.metrics != nil {
		s.metrics.VotesProcessed.WithLabelValues(result).Inc()
	}
	return domain.VoteResult{Success: false, Error: reason}
}
