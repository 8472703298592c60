package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

func setupTestStore(t *testing.T) *VoteStore {
	t.Helper()
	return NewVoteStore(newTestStoreClient(t))
}

func TestVoteStore_ApplyVote(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	res, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteRate, now)
	require.NoError(t, err)
	assert.False(t, res.NoOp)
	assert.False(t, res.Change)
	assert.Equal(t, int64(1), res.Aggregate.RateCount)
	assert.Equal(t, int64(1), res.Aggregate.TotalVotes)

	rec, err := store.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.VoteRate, rec.Vote)
	assert.Equal(t, now, rec.CastAt)

	state, err := store.GetRateState(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.HourlyCount)
	assert.Equal(t, int64(1), state.DailyCount)
	assert.Equal(t, now, state.LastVote)

	agg, err := store.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, res.Aggregate.RateCount, agg.RateCount)
	assert.Equal(t, res.Aggregate.TotalVotes, agg.TotalVotes)
}

func TestVoteStore_ApplyVote_NoOp(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, now)
	require.NoError(t, err)

	res, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, int64(1), res.Aggregate.MehCount)

	// The no-op writes nothing: the record timestamp and the rate
	// counters are unchanged.
	rec, err := store.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	assert.Equal(t, now, rec.CastAt)

	state, err := store.GetRateState(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.HourlyCount)
}

func TestVoteStore_ApplyVote_Change(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteRate, now)
	require.NoError(t, err)

	res, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteHate, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Change)
	require.NotNil(t, res.Previous)
	assert.Equal(t, domain.VoteRate, *res.Previous)
	assert.Equal(t, int64(0), res.Aggregate.RateCount)
	assert.Equal(t, int64(1), res.Aggregate.HateCount)
	assert.Equal(t, int64(1), res.Aggregate.TotalVotes)

	rec, err := store.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	require.NotNil(t, rec.Previous)
	assert.Equal(t, domain.VoteRate, *rec.Previous)
}

func TestVoteStore_ApplyVote_AnonFrozen(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	voter := domain.DeviceIdentity("fp-abc")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteRate, now)
	require.NoError(t, err)

	_, err = store.ApplyVote(ctx, voter, "item-1", domain.VoteMeh, now.Add(10*time.Minute))
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	// Nothing was written.
	agg, err := store.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.RateCount)
	assert.Equal(t, int64(0), agg.MehCount)
}

func TestVoteStore_RemoveVote(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	voter := domain.UserIdentity("user-1")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, err := store.ApplyVote(ctx, voter, "item-1", domain.VoteHate, now)
	require.NoError(t, err)

	removed, err := store.RemoveVote(ctx, voter, "item-1", now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, domain.VoteHate, *removed)

	rec, err := store.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	agg, err := store.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.HateCount)
	assert.Equal(t, int64(0), agg.TotalVotes)
}

func TestVoteStore_RemoveVote_Missing(t *testing.T) {
	store := setupTestStore(t)

	removed, err := store.RemoveVote(context.Background(), domain.UserIdentity("user-1"), "item-1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestVoteStore_GetVote_Missing(t *testing.T) {
	store := setupTestStore(t)

	rec, err := store.GetVote(context.Background(), domain.UserIdentity("user-1"), "item-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestVoteStore_GetRateState_Fresh(t *testing.T) {
	store := setupTestStore(t)

	state, err := store.GetRateState(context.Background(), domain.DeviceIdentity("never-voted"))
	require.NoError(t, err)
	assert.Equal(t, domain.RateLimitState{}, state)
	assert.True(t, state.LastVote.IsZero())
}

func TestVoteStore_ConcurrentSamePair(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	voter := domain.UserIdentity("user-1")

	// Racing casts for one (voter, item) pair: conflicting writers
	// serialize through WATCH, and the pair ends with one ledger entry
	// and exactly one logical vote in the aggregate.
	types := []domain.VoteType{domain.VoteRate, domain.VoteMeh, domain.VoteHate}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				_, err := store.ApplyVote(ctx, voter, "item-1", types[i%3], base)
				if err == nil {
					return
				}
				if !errors.Is(err, domain.ErrTxConflict) {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	agg, err := store.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.TotalVotes)
	assert.Equal(t, int64(1), agg.RateCount+agg.MehCount+agg.HateCount)

	rec, err := store.GetVote(ctx, voter, "item-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestVoteStore_ConcurrentVoters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Concurrent writers on the same item hash exercise the WATCH
	// conflict path; each voter retries until its vote commits.
	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := domain.UserIdentity("user-" + string(rune('a'+i)))
			vt := []domain.VoteType{domain.VoteRate, domain.VoteMeh, domain.VoteHate}[i%3]
			for {
				_, err := store.ApplyVote(ctx, voter, "item-1", vt, base)
				if err == nil {
					return
				}
				if !errors.Is(err, domain.ErrTxConflict) {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	agg, err := store.GetAggregate(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(voters), agg.TotalVotes)
	assert.Equal(t, agg.TotalVotes, agg.RateCount+agg.MehCount+agg.HateCount)
}
