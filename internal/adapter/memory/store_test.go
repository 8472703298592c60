package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestApplyVote_FirstVote(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")

	res, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteRate, baseTime)
	require.NoError(t, err)
	assert.False(t, res.NoOp)
	assert.False(t, res.Change)
	assert.Equal(t, int64(1), res.Aggregate.RateCount)
	assert.Equal(t, int64(1), res.Aggregate.TotalVotes)

	rec, err := s.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.VoteRate, rec.Vote)
	assert.Equal(t, baseTime, rec.CastAt)

	state, err := s.GetRateState(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.HourlyCount)
	assert.Equal(t, int64(1), state.DailyCount)
	assert.Equal(t, baseTime, state.LastVote)
}

func TestApplyVote_SameVoteIsNoOp(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")

	_, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, baseTime)
	require.NoError(t, err)

	res, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, int64(1), res.Aggregate.MehCount)
	assert.Equal(t, int64(1), res.Aggregate.TotalVotes)

	// The no-op does not bump the rate counters.
	state, err := s.GetRateState(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.HourlyCount)
}

func TestApplyVote_ChangeKeepsTotal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")

	_, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteRate, baseTime)
	require.NoError(t, err)

	res, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteHate, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Change)
	require.NotNil(t, res.Previous)
	assert.Equal(t, domain.VoteRate, *res.Previous)
	assert.Equal(t, int64(0), res.Aggregate.RateCount)
	assert.Equal(t, int64(1), res.Aggregate.HateCount)
	assert.Equal(t, int64(1), res.Aggregate.TotalVotes)
}

func TestApplyVote_AnonFrozenAfterGraceWindow(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.DeviceIdentity("fp-abc")

	_, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteRate, baseTime)
	require.NoError(t, err)

	// Inside the window a change is allowed.
	_, err = s.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, baseTime.Add(2*time.Minute))
	require.NoError(t, err)

	// The window restarts at the change, so five minutes after the
	// original cast is still fine, five minutes after the change is not.
	_, err = s.ApplyVote(ctx, voter, "item-1", domain.VoteHate, baseTime.Add(6*time.Minute))
	require.NoError(t, err)

	_, err = s.ApplyVote(ctx, voter, "item-1", domain.VoteRate, baseTime.Add(12*time.Minute))
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestApplyVote_DistinctVotersAndItems(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.ApplyVote(ctx, domain.UserIdentity("a"), "item-1", domain.VoteRate, baseTime)
	require.NoError(t, err)
	_, err = s.ApplyVote(ctx, domain.UserIdentity("b"), "item-1", domain.VoteHate, baseTime)
	require.NoError(t, err)
	_, err = s.ApplyVote(ctx, domain.UserIdentity("a"), "item-2", domain.VoteMeh, baseTime)
	require.NoError(t, err)

	agg, err := s.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.TotalVotes)
	assert.Equal(t, int64(1), agg.RateCount)
	assert.Equal(t, int64(1), agg.HateCount)

	agg, err = s.GetAggregate(ctx, "item-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.TotalVotes)
}

func TestRemoveVote(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")

	_, err := s.ApplyVote(ctx, voter, "item-1", domain.VoteRate, baseTime)
	require.NoError(t, err)

	removed, err := s.RemoveVote(ctx, voter, "item-1", baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, domain.VoteRate, *removed)

	agg, err := s.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.TotalVotes)
	assert.Equal(t, int64(0), agg.RateCount)

	rec, err := s.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRemoveVote_NoExistingVote(t *testing.T) {
	s := NewStore()

	removed, err := s.RemoveVote(context.Background(), domain.UserIdentity("user-1"), "item-1", baseTime)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestGetAggregate_UnknownItemIsZero(t *testing.T) {
	s := NewStore()

	agg, err := s.GetAggregate(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemAggregate{}, agg)
}

func TestApplyVote_ConcurrentSamePair(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")

	// Racing casts for the same (voter, item) pair must collapse to a
	// single ledger entry and one logical vote in the aggregate.
	types := []domain.VoteType{domain.VoteRate, domain.VoteMeh, domain.VoteHate}
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyVote(ctx, voter, "item-1", types[i%3], baseTime)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	agg, err := s.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.TotalVotes)
	assert.Equal(t, int64(1), agg.RateCount+agg.MehCount+agg.HateCount)

	rec, err := s.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestApplyVote_ConcurrentVoters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := domain.UserIdentity(string(rune('a'+i%26)) + string(rune('0'+i/26)))
			vt := []domain.VoteType{domain.VoteRate, domain.VoteMeh, domain.VoteHate}[i%3]
			_, err := s.ApplyVote(ctx, voter, "item-1", vt, baseTime.Add(time.Duration(i)*time.Second))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	agg, err := s.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(voters), agg.TotalVotes)
	assert.Equal(t, agg.TotalVotes, agg.RateCount+agg.MehCount+agg.HateCount)
}
