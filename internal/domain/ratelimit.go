package domain

import "time"

// RateLimitState tracks how many votes an identity has cast in the
// current hour and calendar day. Rollover is applied lazily on read
// and write rather than by a background timer, so the state works the
// same in a stateless server.
type RateLimitState struct {
	HourlyCount int64
	DailyCount  int64
	LastVote    time.Time // zero when the identity has never voted
}
