// Package gamification notifies the points/badges service about new
// votes. The hook is fire-and-forget: callers log and swallow every
// failure, and a circuit breaker keeps a dead endpoint from tying up
// vote requests.
package gamification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

const requestTimeout = 3 * time.Second

type Webhook struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWebhook(baseURL string) *Webhook {
	settings := gobreaker.Settings{
		Name:    "gamification",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		},
	}

	return &Webhook{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type votePayload struct {
	VoterKind  string `json:"voterKind"`
	VoterID    string `json:"voterId"`
	ItemID     string `json:"itemId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

func (w *Webhook) NotifyVote(ctx context.Context, voter domain.Identity, itemID, categoryID string) error {
	return w.post(ctx, "/votes", votePayload{
		VoterKind:  string(voter.Kind),
		VoterID:    voter.ID,
		ItemID:     itemID,
		CategoryID: categoryID,
	})
}

func (w *Webhook) CheckBadges(ctx context.Context, voter domain.Identity, categoryID string) error {
	return w.post(ctx, "/badges", votePayload{
		VoterKind:  string(voter.Kind),
		VoterID:    voter.ID,
		CategoryID: categoryID,
	})
}

func (w *Webhook) post(ctx context.Context, path string, payload votePayload) error {
	_, err := w.breaker.Execute(func() (any, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gamification request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("gamification service returned %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

var _ domain.GamificationHook = (*Webhook)(nil)
