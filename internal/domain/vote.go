package domain

import (
	"fmt"
	"math"
	"time"
)

// VoteType is the sentiment a voter expressed for an item.
type VoteType string

const (
	VoteRate VoteType = "rate"
	VoteMeh  VoteType = "meh"
	VoteHate VoteType = "hate"
)

// ParseVoteType validates a wire-level vote value.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteRate, VoteMeh, VoteHate:
		return VoteType(s), nil
	default:
		return "", fmt.Errorf("invalid vote type %q", s)
	}
}

// AnonGraceWindow is how long an anonymous device may still change or
// re-cast its vote on an item. Past the window the vote is frozen.
const AnonGraceWindow = 5 * time.Minute

// VoteRecord is the ledger entry for one (voter, item) pair.
// At most one record exists per pair.
type VoteRecord struct {
	Vote     VoteType
	CastAt   time.Time
	Previous *VoteType
}

// Mutable reports whether the record may still be changed by its owner.
// Authenticated users can always change their vote; anonymous devices
// only within the grace window.
func (r *VoteRecord) Mutable(voter Identity, now time.Time) bool {
	if voter.Authenticated() {
		return true
	}
	return now.Sub(r.CastAt) < AnonGraceWindow
}

// ItemAggregate holds the per-item sentiment tallies.
// TotalVotes equals the sum of the three counters at every quiescent
// point; it counts distinct voters, so vote changes leave it untouched.
type ItemAggregate struct {
	RateCount   int64
	MehCount    int64
	HateCount   int64
	TotalVotes  int64
	LastUpdated time.Time
}

func (a ItemAggregate) Count(v VoteType) int64 {
	switch v {
	case VoteRate:
		return a.RateCount
	case VoteMeh:
		return a.MehCount
	case VoteHate:
		return a.HateCount
	}
	return 0
}

// Percentage returns the share of votes for v, rounded half-up.
// It is 0 when the item has no votes.
func (a ItemAggregate) Percentage(v VoteType) int {
	if a.TotalVotes == 0 {
		return 0
	}
	return int(math.Floor(100*float64(a.Count(v))/float64(a.TotalVotes) + 0.5))
}

// ItemStats is the read model returned by the stats operation.
type ItemStats struct {
	RateCount      int64     `json:"rateCount"`
	MehCount       int64     `json:"mehCount"`
	HateCount      int64     `json:"hateCount"`
	TotalVotes     int64     `json:"totalVotes"`
	RatePercentage int       `json:"ratePercentage"`
	MehPercentage  int       `json:"mehPercentage"`
	HatePercentage int       `json:"hatePercentage"`
	UserVote       *VoteType `json:"userVote"`
}

// Eligibility is the outcome of the pre-vote check.
type Eligibility struct {
	CanVote  bool      `json:"canVote"`
	Reason   string    `json:"reason,omitempty"`
	Change   bool      `json:"-"`
	Previous *VoteType `json:"-"`
}

// VoteResult is the outcome of a cast attempt. Failures are carried as
// values so callers can render the reason without unwrapping errors.
type VoteResult struct {
	Success   bool   `json:"success"`
	RateCount int64  `json:"rateCount"`
	MehCount  int64  `json:"mehCount"`
	HateCount int64  `json:"hateCount"`
	Error     string `json:"error,omitempty"`
}
