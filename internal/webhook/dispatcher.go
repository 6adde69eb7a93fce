// Package webhook delivers alerts to user-registered HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"finterm/internal/errors"
	"finterm/internal/logging"
	"finterm/internal/models"
	"finterm/internal/store"
)

const (
	dispatchTimeout = 10 * time.Second
	userAgent       = "finterm/1.0"
)

// Dispatcher posts alert payloads to every enabled, non-suspended
// endpoint whose allow-list admits the alert's type. Delivery is best
// effort: a failing endpoint never blocks the others.
type Dispatcher struct {
	store  store.AlertStore
	client *http.Client
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher backed by the given store.
func NewDispatcher(alertStore store.AlertStore, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  alertStore,
		client: &http.Client{Timeout: dispatchTimeout},
		logger: logging.WithComponent(logger, "webhook"),
	}
}

// payload is the JSON document posted to endpoints.
type payload struct {
	Event     string       `json:"event"`
	Timestamp string       `json:"timestamp"`
	Alert     payloadAlert `json:"alert"`
}

type payloadAlert struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"`
	Symbol    string                 `json:"symbol,omitempty"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt string                 `json:"createdAt"`
}

func buildPayload(alert models.Alert) payload {
	return payload{
		Event:     "alert",
		Timestamp: time.Now().Format(time.RFC3339),
		Alert: payloadAlert{
			ID:        alert.ID,
			Type:      string(alert.Type),
			Severity:  string(alert.Severity),
			Symbol:    alert.Symbol,
			Title:     alert.Title,
			Message:   alert.Message,
			Data:      alert.Data,
			CreatedAt: alert.CreatedAt.Format(time.RFC3339),
		},
	}
}

// DispatchResult counts per-endpoint outcomes of a single dispatch.
// Endpoints skipped by suspension or allow-list appear in neither
// bucket.
type DispatchResult struct {
	Sent   int
	Failed int
}

// DispatchAlert sends the alert to all matching endpoints and records
// the per-endpoint outcome. Suspended endpoints are skipped without a
// delivery attempt.
func (d *Dispatcher) DispatchAlert(ctx context.Context, alert models.Alert) DispatchResult {
	var result DispatchResult

	endpoints, err := d.store.GetWebhooks(ctx, true)
	if err != nil {
		d.logger.Warn().Err(err).Msg("webhook lookup failed")
		return result
	}

	for _, ep := range endpoints {
		if ep.Suspended() || !ep.Accepts(alert.Type) {
			continue
		}

		err := d.deliver(ctx, ep, buildPayload(alert))
		logging.LogDispatch(d.logger, ep.ID, ep.URL, err == nil, err)
		if err == nil {
			result.Sent++
		} else {
			result.Failed++
		}

		if recErr := d.store.RecordWebhookResult(ctx, ep.ID, err == nil); recErr != nil {
			d.logger.Warn().Err(recErr).Int64("endpoint", ep.ID).Msg("webhook result not recorded")
		}
	}
	return result
}

// deliver performs one HTTP POST. Any non-2xx response counts as a
// delivery failure.
func (d *Dispatcher) deliver(ctx context.Context, ep models.WebhookEndpoint, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return errors.NewDeliveryError(ep.ID, ep.URL, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return errors.NewDeliveryError(ep.ID, ep.URL, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.NewDeliveryError(ep.ID, ep.URL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewDeliveryError(ep.ID, ep.URL, resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

// TestWebhook sends a synthetic alert to a single endpoint so the user
// can verify connectivity. The outcome is recorded like a real
// delivery.
func (d *Dispatcher) TestWebhook(ctx context.Context, id int64) error {
	ep, err := d.store.GetWebhook(ctx, id)
	if err != nil {
		return err
	}

	test := models.Alert{
		ID:        0,
		Type:      models.AlertWatchlistEvent,
		Severity:  models.SeverityInfo,
		Title:     "Test alert",
		Message:   "This is a test delivery. If you can read this, the endpoint works.",
		CreatedAt: time.Now(),
	}

	err = d.deliver(ctx, *ep, buildPayload(test))
	logging.LogDispatch(d.logger, ep.ID, ep.URL, err == nil, err)

	if recErr := d.store.RecordWebhookResult(ctx, ep.ID, err == nil); recErr != nil {
		d.logger.Warn().Err(recErr).Int64("endpoint", ep.ID).Msg("webhook result not recorded")
	}
	return err
}

// Stats reports aggregate endpoint health.
func (d *Dispatcher) Stats(ctx context.Context) (*store.WebhookStats, error) {
	return d.store.GetWebhookStats(ctx)
}
