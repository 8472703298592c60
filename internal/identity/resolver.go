// Package identity resolves the caller of a vote operation: an
// authenticated user when a valid session exists, otherwise an
// anonymous device fingerprint.
package identity

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

const (
	// SessionName is the cookie carrying the authenticated session.
	SessionName = "rateithateit-session"
	// SessionKeyUserID is the session value holding the user's uuid.
	SessionKeyUserID = "userID"
)

type Resolver struct {
	sessions sessions.Store
}

func NewResolver(store sessions.Store) *Resolver {
	return &Resolver{sessions: store}
}

// Resolve determines the identity for a request. A valid session wins;
// otherwise the device fingerprint applies. When fingerprint inputs
// are missing a random fallback id keeps the request usable; it will
// not persist across sessions, which is an accepted limitation.
func (r *Resolver) Resolve(req *http.Request, realIP string) (domain.Identity, error) {
	if id, ok := r.sessionUserID(req); ok {
		return domain.UserIdentity(id), nil
	}

	fp := Fingerprint(
		realIP,
		req.UserAgent(),
		req.Header.Get("Accept-Language"),
		req.Header.Get("Accept-Encoding"),
	)
	if fp != "" {
		return domain.DeviceIdentity(fp), nil
	}

	fallback, err := uuid.NewRandom()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}
	return domain.DeviceIdentity("anon-" + fallback.String()), nil
}

func (r *Resolver) sessionUserID(req *http.Request) (string, bool) {
	if r.sessions == nil {
		return "", false
	}

	session, err := r.sessions.Get(req, SessionName)
	if err != nil {
		// A corrupt cookie degrades to anonymous rather than failing.
		return "", false
	}

	raw, ok := session.Values[SessionKeyUserID].(string)
	if !ok || raw == "" {
		return "", false
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}
