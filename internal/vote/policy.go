// Package vote holds the pure voting rules: rate-limit policies,
// counter rollover, and aggregate delta math. Everything here is
// side-effect free so both store adapters and the vote manager share
// one implementation.
package vote

import (
	"time"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

// LimitPolicy is the ceiling set applied to one identity kind.
type LimitPolicy struct {
	HourlyMax int64
	DailyMax  int64
	Cooldown  time.Duration
}

var (
	anonPolicy = LimitPolicy{HourlyMax: 30, DailyMax: 75, Cooldown: 500 * time.Millisecond}
	authPolicy = LimitPolicy{HourlyMax: 100, DailyMax: 300, Cooldown: 200 * time.Millisecond}
)

// PolicyFor returns the limit policy for the voter's identity kind.
func PolicyFor(voter domain.Identity) LimitPolicy {
	if voter.Authenticated() {
		return authPolicy
	}
	return anonPolicy
}

// Reason strings surfaced directly to users.
const (
	ReasonCooldown     = "please wait a moment before voting again"
	ReasonHourlyLimit  = "hourly vote limit reached"
	ReasonDailyLimit   = "daily vote limit reached"
	ReasonAlreadyVoted = "already voted"
	ReasonTryAgain     = "something went wrong, please try again"
	ReasonNoIdentity   = "unable to verify device"
)

// Rollover resets the hourly counter when more than an hour has passed
// since the last vote, and the daily counter when the calendar day (in
// UTC) has changed. It is idempotent: applying it twice for the same
// now yields the same state.
func Rollover(state domain.RateLimitState, now time.Time) domain.RateLimitState {
	if state.LastVote.IsZero() {
		return state
	}
	if now.Sub(state.LastVote) > time.Hour {
		state.HourlyCount = 0
	}
	ly, lm, ld := state.LastVote.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if ly != ny || lm != nm || ld != nd {
		state.DailyCount = 0
	}
	return state
}

// CheckLimit evaluates the policy against a post-rollover state.
// Checks run cooldown, then hourly, then daily; the first violation
// short-circuits and its reason is returned.
func CheckLimit(state domain.RateLimitState, voter domain.Identity, now time.Time) (bool, string) {
	p := PolicyFor(voter)

	if !state.LastVote.IsZero() && now.Sub(state.LastVote) < p.Cooldown {
		return false, ReasonCooldown
	}
	if state.HourlyCount >= p.HourlyMax {
		return false, ReasonHourlyLimit
	}
	if state.DailyCount >= p.DailyMax {
		return false, ReasonDailyLimit
	}
	return true, ""
}
