package models

import "time"

// AlertType represents the kind of condition that produced an alert.
type AlertType string

const (
	AlertPriceDrop        AlertType = "price_drop"
	AlertPriceSpike       AlertType = "price_spike"
	AlertEarningsSoon     AlertType = "earnings_soon"
	AlertNewsSentiment    AlertType = "news_sentiment"
	AlertPortfolioAnomaly AlertType = "portfolio_anomaly"
	AlertMarketRegime     AlertType = "market_regime"
	AlertWatchlistEvent   AlertType = "watchlist_event"
)

// AlertSeverity ranks an alert's urgency.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// AlertStatus represents an alert's lifecycle state. Transitions are
// monotonic: pending -> read and pending -> dismissed only.
type AlertStatus string

const (
	StatusPending   AlertStatus = "pending"
	StatusRead      AlertStatus = "read"
	StatusDismissed AlertStatus = "dismissed"
)

// Alert represents a created notification.
type Alert struct {
	ID        int64
	Type      AlertType
	Severity  AlertSeverity
	Status    AlertStatus
	Symbol    string // optional
	Title     string
	Message   string
	Data      map[string]interface{} // opaque structured payload
	CreatedAt time.Time
	ExpiresAt *time.Time // informational, e.g. an earnings date
}

// AlertConfig is the singleton alert engine configuration. Updates are
// partial merges over defaults, never full replacement.
type AlertConfig struct {
	Enabled bool `json:"enabled"`

	PriceDropEnabled    bool `json:"price_drop_enabled"`
	PriceSpikeEnabled   bool `json:"price_spike_enabled"`
	EarningsEnabled     bool `json:"earnings_enabled"`
	SentimentEnabled    bool `json:"sentiment_enabled"`
	WatchlistEnabled    bool `json:"watchlist_enabled"`

	PriceDropThreshold    float64 `json:"price_drop_threshold"`    // percent, positive number
	PriceSpikeThreshold   float64 `json:"price_spike_threshold"`   // percent
	EarningsLookAheadDays int     `json:"earnings_look_ahead_days"`
	SentimentThreshold    float64 `json:"sentiment_threshold"`

	CheckInterval   time.Duration `json:"check_interval"`
	MaxAlertsPerDay int           `json:"max_alerts_per_day"`
}

// DefaultAlertConfig returns the hardcoded configuration defaults,
// used whenever no persisted configuration exists or it cannot be read.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		Enabled:               true,
		PriceDropEnabled:      true,
		PriceSpikeEnabled:     true,
		EarningsEnabled:       true,
		SentimentEnabled:      true,
		WatchlistEnabled:      true,
		PriceDropThreshold:    5.0,
		PriceSpikeThreshold:   5.0,
		EarningsLookAheadDays: 7,
		SentimentThreshold:    0.5,
		CheckInterval:         5 * time.Minute,
		MaxAlertsPerDay:       20,
	}
}

// AlertConfigUpdate is a partial configuration update. Nil fields keep
// their current value.
type AlertConfigUpdate struct {
	Enabled *bool

	PriceDropEnabled  *bool
	PriceSpikeEnabled *bool
	EarningsEnabled   *bool
	SentimentEnabled  *bool
	WatchlistEnabled  *bool

	PriceDropThreshold    *float64
	PriceSpikeThreshold   *float64
	EarningsLookAheadDays *int
	SentimentThreshold    *float64

	CheckInterval   *time.Duration
	MaxAlertsPerDay *int
}

// Apply merges the update into cfg.
func (u AlertConfigUpdate) Apply(cfg *AlertConfig) {
	if u.Enabled != nil {
		cfg.Enabled = *u.Enabled
	}
	if u.PriceDropEnabled != nil {
		cfg.PriceDropEnabled = *u.PriceDropEnabled
	}
	if u.PriceSpikeEnabled != nil {
		cfg.PriceSpikeEnabled = *u.PriceSpikeEnabled
	}
	if u.EarningsEnabled != nil {
		cfg.EarningsEnabled = *u.EarningsEnabled
	}
	if u.SentimentEnabled != nil {
		cfg.SentimentEnabled = *u.SentimentEnabled
	}
	if u.WatchlistEnabled != nil {
		cfg.WatchlistEnabled = *u.WatchlistEnabled
	}
	if u.PriceDropThreshold != nil {
		cfg.PriceDropThreshold = *u.PriceDropThreshold
	}
	if u.PriceSpikeThreshold != nil {
		cfg.PriceSpikeThreshold = *u.PriceSpikeThreshold
	}
	if u.EarningsLookAheadDays != nil {
		cfg.EarningsLookAheadDays = *u.EarningsLookAheadDays
	}
	if u.SentimentThreshold != nil {
		cfg.SentimentThreshold = *u.SentimentThreshold
	}
	if u.CheckInterval != nil {
		cfg.CheckInterval = *u.CheckInterval
	}
	if u.MaxAlertsPerDay != nil {
		cfg.MaxAlertsPerDay = *u.MaxAlertsPerDay
	}
}

// TypeEnabled reports whether alerts of the given type are enabled.
func (c AlertConfig) TypeEnabled(t AlertType) bool {
	switch t {
	case AlertPriceDrop:
		return c.PriceDropEnabled
	case AlertPriceSpike:
		return c.PriceSpikeEnabled
	case AlertEarningsSoon:
		return c.EarningsEnabled
	case AlertNewsSentiment:
		return c.SentimentEnabled
	case AlertWatchlistEvent:
		return c.WatchlistEnabled
	default:
		return true
	}
}
