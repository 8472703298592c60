package domain

import "errors"

var (
	// ErrAlreadyVoted is returned when an anonymous voter tries to
	// change a vote after the grace window closed.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrNoIdentity means neither a session nor a device fingerprint
	// could be resolved for the caller.
	ErrNoIdentity = errors.New("unable to verify device")

	// ErrTxConflict signals an optimistic transaction conflict in the
	// store. It is transient; callers retry.
	ErrTxConflict = errors.New("vote transaction conflict")

	ErrUserNotFound = errors.New("user not found")
)
