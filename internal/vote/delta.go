package vote

import "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"

// AggregateDelta is the set of counter adjustments one logical vote
// operation makes on an item.
type AggregateDelta struct {
	Rate  int64
	Meh   int64
	Hate  int64
	Total int64
}

func (d *AggregateDelta) bump(v domain.VoteType, by int64) {
	switch v {
	case domain.VoteRate:
		d.Rate += by
	case domain.VoteMeh:
		d.Meh += by
	case domain.VoteHate:
		d.Hate += by
	}
}

// DeltaForCast computes the aggregate adjustment for casting next when
// the voter's existing vote is previous (nil for a first vote).
//
// A new vote adds one to its counter and to the total. A change moves
// one vote between counters and leaves the total alone: the total
// counts distinct voters, so only deletion ever decrements it.
func DeltaForCast(previous *domain.VoteType, next domain.VoteType) AggregateDelta {
	var d AggregateDelta
	if previous == nil {
		d.bump(next, 1)
		d.Total = 1
		return d
	}
	if *previous == next {
		return d
	}
	d.bump(*previous, -1)
	d.bump(next, 1)
	return d
}

// DeltaForRemoval computes the adjustment for deleting a vote of the
// given type.
func DeltaForRemoval(removed domain.VoteType) AggregateDelta {
	var d AggregateDelta
	d.bump(removed, -1)
	d.Total = -1
	return d
}

// Apply returns the aggregate with the delta folded in.
func (d AggregateDelta) Apply(a domain.ItemAggregate) domain.ItemAggregate {
	a.RateCount += d.Rate
	a.MehCount += d.Meh
	a.HateCount += d.Hate
	a.TotalVotes += d.Total
	return a
}

// Zero reports whether the delta changes nothing.
func (d AggregateDelta) Zero() bool {
	return d == AggregateDelta{}
}
