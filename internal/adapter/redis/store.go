package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/vote"
)

// Hash field names shared by the three record kinds.
const (
	fieldVote    = "vote"
	fieldCastAt  = "cast_at_ms"
	fieldPrev    = "prev"
	fieldHourly  = "hourly"
	fieldDaily   = "daily"
	fieldLast    = "last_vote_ms"
	fieldRate    = "rate"
	fieldMeh     = "meh"
	fieldHate    = "hate"
	fieldTotal   = "total"
	fieldUpdated = "updated_ms"
)

type VoteStore struct {
	rdb *goredis.Client
}

func NewVoteStore(rdb *goredis.Client) *VoteStore {
	return &VoteStore{rdb: rdb}
}

func voteKey(voter domain.Identity, itemID string) string {
	return "vote:" + voter.Key() + ":" + itemID
}

func rateKey(voter domain.Identity) string {
	return "rate:" + voter.Key()
}

func itemKey(itemID string) string {
	return "item:" + itemID
}

func (s *VoteStore) GetVote(ctx context.Context, voter domain.Identity, itemID string) (*domain.VoteRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, voteKey(voter, itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read vote record: %w", err)
	}
	return parseVoteRecord(fields)
}

func (s *VoteStore) GetRateState(ctx context.Context, voter domain.Identity) (domain.RateLimitState, error) {
	fields, err := s.rdb.HGetAll(ctx, rateKey(voter)).Result()
	if err != nil {
		return domain.RateLimitState{}, fmt.Errorf("failed to read rate state: %w", err)
	}
	return parseRateState(fields), nil
}

func (s *VoteStore) GetAggregate(ctx context.Context, itemID string) (domain.ItemAggregate, error) {
	fields, err := s.rdb.HGetAll(ctx, itemKey(itemID)).Result()
	if err != nil {
		return domain.ItemAggregate{}, fmt.Errorf("failed to read item aggregate: %w", err)
	}
	return parseAggregate(fields), nil
}

// ApplyVote runs the upsert + counter bump as one optimistic
// transaction over the three keys. A concurrent writer on any of them
// aborts the EXEC, surfaced as domain.ErrTxConflict for the manager's
// retry loop.
func (s *VoteStore) ApplyVote(ctx context.Context, voter domain.Identity, itemID string, vt domain.VoteType, now time.Time) (*domain.ApplyResult, error) {
	vk := voteKey(voter, itemID)
	rk := rateKey(voter)
	ik := itemKey(itemID)

	var result *domain.ApplyResult

	txErr := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		voteFields, err := tx.HGetAll(ctx, vk).Result()
		if err != nil {
			return fmt.Errorf("failed to read vote record: %w", err)
		}
		cur, err := parseVoteRecord(voteFields)
		if err != nil {
			return err
		}

		aggFields, err := tx.HGetAll(ctx, ik).Result()
		if err != nil {
			return fmt.Errorf("failed to read item aggregate: %w", err)
		}
		agg := parseAggregate(aggFields)

		var previous *domain.VoteType
		if cur != nil {
			if cur.Vote == vt {
				result = &domain.ApplyResult{Aggregate: agg, NoOp: true}
				return nil
			}
			if !cur.Mutable(voter, now) {
				return domain.ErrAlreadyVoted
			}
			prev := cur.Vote
			previous = &prev
		}

		rateFields, err := tx.HGetAll(ctx, rk).Result()
		if err != nil {
			return fmt.Errorf("failed to read rate state: %w", err)
		}
		state := vote.Rollover(parseRateState(rateFields), now)
		state.HourlyCount++
		state.DailyCount++
		state.LastVote = now

		delta := vote.DeltaForCast(previous, vt)

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			rec := map[string]any{
				fieldVote:   string(vt),
				fieldCastAt: now.UnixMilli(),
			}
			if previous != nil {
				rec[fieldPrev] = string(*previous)
			}
			pipe.HSet(ctx, vk, rec)

			pipe.HSet(ctx, rk, map[string]any{
				fieldHourly: state.HourlyCount,
				fieldDaily:  state.DailyCount,
				fieldLast:   now.UnixMilli(),
			})

			applyDeltaPipe(ctx, pipe, ik, delta, now)
			return nil
		})
		if err != nil {
			return err
		}

		// Post-state is pre-state plus delta; the transaction guarantees
		// it matches what was committed.
		post := delta.Apply(agg)
		post.LastUpdated = now
		result = &domain.ApplyResult{
			Aggregate: post,
			Change:    previous != nil,
			Previous:  previous,
		}
		return nil
	}, vk, rk, ik)

	if txErr != nil {
		if errors.Is(txErr, goredis.TxFailedErr) {
			return nil, domain.ErrTxConflict
		}
		return nil, txErr
	}
	return result, nil
}

func (s *VoteStore) RemoveVote(ctx context.Context, voter domain.Identity, itemID string, now time.Time) (*domain.VoteType, error) {
	vk := voteKey(voter, itemID)
	ik := itemKey(itemID)

	var removed *domain.VoteType

	txErr := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		voteFields, err := tx.HGetAll(ctx, vk).Result()
		if err != nil {
			return fmt.Errorf("failed to read vote record: %w", err)
		}
		cur, err := parseVoteRecord(voteFields)
		if err != nil {
			return err
		}
		if cur == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, vk)
			applyDeltaPipe(ctx, pipe, ik, vote.DeltaForRemoval(cur.Vote), now)
			return nil
		})
		if err != nil {
			return err
		}

		vt := cur.Vote
		removed = &vt
		return nil
	}, vk, ik)

	if txErr != nil {
		if errors.Is(txErr, goredis.TxFailedErr) {
			return nil, domain.ErrTxConflict
		}
		return nil, txErr
	}
	return removed, nil
}

func applyDeltaPipe(ctx context.Context, pipe goredis.Pipeliner, itemKey string, delta vote.AggregateDelta, now time.Time) {
	if delta.Rate != 0 {
		pipe.HIncrBy(ctx, itemKey, fieldRate, delta.Rate)
	}
	if delta.Meh != 0 {
		pipe.HIncrBy(ctx, itemKey, fieldMeh, delta.Meh)
	}
	if delta.Hate != 0 {
		pipe.HIncrBy(ctx, itemKey, fieldHate, delta.Hate)
	}
	if delta.Total != 0 {
		pipe.HIncrBy(ctx, itemKey, fieldTotal, delta.Total)
	}
	pipe.HSet(ctx, itemKey, fieldUpdated, now.UnixMilli())
}

func parseVoteRecord(fields map[string]string) (*domain.VoteRecord, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	vt, err := domain.ParseVoteType(fields[fieldVote])
	if err != nil {
		return nil, fmt.Errorf("corrupt vote record: %w", err)
	}

	rec := &domain.VoteRecord{
		Vote:   vt,
		CastAt: parseMillis(fields[fieldCastAt]),
	}
	if prev, ok := fields[fieldPrev]; ok && prev != "" {
		if pv, err := domain.ParseVoteType(prev); err == nil {
			rec.Previous = &pv
		}
	}
	return rec, nil
}

func parseRateState(fields map[string]string) domain.RateLimitState {
	state := domain.RateLimitState{
		HourlyCount: parseInt(fields[fieldHourly]),
		DailyCount:  parseInt(fields[fieldDaily]),
	}
	if raw, ok := fields[fieldLast]; ok {
		state.LastVote = parseMillis(raw)
	}
	return state
}

func parseAggregate(fields map[string]string) domain.ItemAggregate {
	agg := domain.ItemAggregate{
		RateCount:  parseInt(fields[fieldRate]),
		MehCount:   parseInt(fields[fieldMeh]),
		HateCount:  parseInt(fields[fieldHate]),
		TotalVotes: parseInt(fields[fieldTotal]),
	}
	if raw, ok := fields[fieldUpdated]; ok {
		agg.LastUpdated = parseMillis(raw)
	}
	return agg
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ domain.VoteStore = (*VoteStore)(nil)
