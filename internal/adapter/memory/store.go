// Package memory implements the vote store on in-process maps guarded
// by a single mutex. It backs unit tests and single-node deployments
// without Redis; the mutex stands in for the document store's
// transaction, so every operation is trivially linearizable.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/vote"
)

type Store struct {
	mu    sync.Mutex
	votes map[string]domain.VoteRecord      // voterKey|itemID
	rates map[string]domain.RateLimitState  // voterKey
	items map[string]domain.ItemAggregate   // itemID
}

func NewStore() *Store {
	return &Store{
		votes: make(map[string]domain.VoteRecord),
		rates: make(map[string]domain.RateLimitState),
		items: make(map[string]domain.ItemAggregate),
	}
}

func voteKey(voter domain.Identity, itemID string) string {
	return voter.Key() + "|" + itemID
}

func (s *Store) GetVote(_ context.Context, voter domain.Identity, itemID string) (*domain.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.votes[voteKey(voter, itemID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) GetRateState(_ context.Context, voter domain.Identity) (domain.RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates[voter.Key()], nil
}

func (s *Store) GetAggregate(_ context.Context, itemID string) (domain.ItemAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID], nil
}

func (s *Store) ApplyVote(_ context.Context, voter domain.Identity, itemID string, vt domain.VoteType, now time.Time) (*domain.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vk := voteKey(voter, itemID)

	var previous *domain.VoteType
	if cur, ok := s.votes[vk]; ok {
		if cur.Vote == vt {
			return &domain.ApplyResult{Aggregate: s.items[itemID], NoOp: true}, nil
		}
		if !cur.Mutable(voter, now) {
			return nil, domain.ErrAlreadyVoted
		}
		prev := cur.Vote
		previous = &prev
	}

	delta := vote.DeltaForCast(previous, vt)
	agg := delta.Apply(s.items[itemID])
	agg.LastUpdated = now
	s.items[itemID] = agg

	s.votes[vk] = domain.VoteRecord{Vote: vt, CastAt: now, Previous: previous}

	state := vote.Rollover(s.rates[voter.Key()], now)
	state.HourlyCount++
	state.DailyCount++
	state.LastVote = now
	s.rates[voter.Key()] = state

	return &domain.ApplyResult{
		Aggregate: agg,
		Change:    previous != nil,
		Previous:  previous,
	}, nil
}

func (s *Store) RemoveVote(_ context.Context, voter domain.Identity, itemID string, now time.Time) (*domain.VoteType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vk := voteKey(voter, itemID)
	cur, ok := s.votes[vk]
	if !ok {
		return nil, nil
	}
	delete(s.votes, vk)

	agg := vote.DeltaForRemoval(cur.Vote).Apply(s.items[itemID])
	agg.LastUpdated = now
	s.items[itemID] = agg

	removed := cur.Vote
	return &removed, nil
}

var _ domain.VoteStore = (*Store)(nil)
