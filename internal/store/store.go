// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"finterm/internal/models"
)

// EventKind distinguishes the alert lifecycle events published to
// subscribers.
type EventKind string

const (
	// EventCreated is published synchronously when an alert is inserted.
	EventCreated EventKind = "created"
	// EventUpdated is published when an alert's status changes.
	EventUpdated EventKind = "updated"
)

// AlertEvent is delivered to in-process subscribers.
type AlertEvent struct {
	Kind  EventKind
	Alert models.Alert
}

// CreateAlertOpts carries the optional fields of a new alert.
type CreateAlertOpts struct {
	Symbol    string
	Data      map[string]interface{}
	ExpiresAt *time.Time
}

// AlertFilter represents filters for querying alerts. All set filters
// are conjunctive.
type AlertFilter struct {
	Status models.AlertStatus
	Type   models.AlertType
	Symbol string
	Limit  int
}

// AlertSummary aggregates pending alerts for dashboard display.
type AlertSummary struct {
	Pending  int
	Critical int
	Warning  int
	Info     int
	Alerts   []models.Alert // newest first, at most 10
}

// WebhookStats aggregates endpoint state for display.
type WebhookStats struct {
	Total   int
	Enabled int
	Failing int // fail_count >= 3
}

// AlertStore is the single owner of alert, configuration and webhook
// persistence. All writes to those records go through it.
type AlertStore interface {
	// Alerts
	CreateAlert(ctx context.Context, alertType models.AlertType, severity models.AlertSeverity, title, message string, opts CreateAlertOpts) (*models.Alert, error)
	GetAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	GetPendingAlerts(ctx context.Context) ([]models.Alert, error)
	GetAlertCount(ctx context.Context, status models.AlertStatus) (int, error)
	UpdateAlertStatus(ctx context.Context, id int64, status models.AlertStatus) (bool, error)
	MarkAlertRead(ctx context.Context, id int64) (bool, error)
	DismissAlert(ctx context.Context, id int64) (bool, error)
	DismissAllAlerts(ctx context.Context) (int, error)
	DeleteOldAlerts(ctx context.Context, daysOld int) (int, error)
	HasRecentAlert(ctx context.Context, alertType models.AlertType, symbol string, within time.Duration) (bool, error)
	TodayAlertCount(ctx context.Context) (int, error)
	GetAlertSummary(ctx context.Context) (*AlertSummary, error)

	// Configuration
	GetAlertConfig(ctx context.Context) models.AlertConfig
	UpdateAlertConfig(ctx context.Context, update models.AlertConfigUpdate) (*models.AlertConfig, error)

	// Webhook endpoints
	AddWebhook(ctx context.Context, url, name string) (*models.WebhookEndpoint, error)
	RemoveWebhook(ctx context.Context, id int64) error
	SetWebhookEnabled(ctx context.Context, id int64, enabled bool) error
	SetWebhookAlertTypes(ctx context.Context, id int64, types []models.AlertType) error
	GetWebhook(ctx context.Context, id int64) (*models.WebhookEndpoint, error)
	GetWebhooks(ctx context.Context, enabledOnly bool) ([]models.WebhookEndpoint, error)
	RecordWebhookResult(ctx context.Context, id int64, ok bool) error
	GetWebhookStats(ctx context.Context) (*WebhookStats, error)

	// Watchlist & holdings
	Watchlist(ctx context.Context) ([]string, error)
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	Holdings(ctx context.Context) ([]models.Holding, error)
	UpsertHolding(ctx context.Context, holding models.Holding) error
	RemoveHolding(ctx context.Context, symbol string) error

	// Pub/sub
	Subscribe(fn func(AlertEvent)) (unsubscribe func())

	// Lifecycle
	Close() error
}
