package alerts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finterm/internal/models"
	"finterm/internal/store"
)

// fakeStore is an in-memory AlertStore for engine tests.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	alerts   []models.Alert
	config   models.AlertConfig
	watch    []string
	holdings []models.Holding

	subs    map[int64]func(store.AlertEvent)
	nextSub int64

	createErr error
	countErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		config: models.DefaultAlertConfig(),
		subs:   make(map[int64]func(store.AlertEvent)),
	}
}

func (f *fakeStore) CreateAlert(ctx context.Context, alertType models.AlertType, severity models.AlertSeverity, title, message string, opts store.CreateAlertOpts) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	alert := models.Alert{
		ID:        f.nextID,
		Type:      alertType,
		Severity:  severity,
		Status:    models.StatusPending,
		Symbol:    opts.Symbol,
		Title:     title,
		Message:   message,
		Data:      opts.Data,
		CreatedAt: time.Now(),
		ExpiresAt: opts.ExpiresAt,
	}
	f.alerts = append(f.alerts, alert)
	for _, fn := range f.subs {
		fn(store.AlertEvent{Kind: store.EventCreated, Alert: alert})
	}
	return &alert, nil
}

func (f *fakeStore) GetAlerts(ctx context.Context, filter store.AlertFilter) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Symbol != "" && a.Symbol != filter.Symbol {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) GetPendingAlerts(ctx context.Context) ([]models.Alert, error) {
	return f.GetAlerts(ctx, store.AlertFilter{Status: models.StatusPending})
}

func (f *fakeStore) GetAlertCount(ctx context.Context, status models.AlertStatus) (int, error) {
	alerts, _ := f.GetAlerts(ctx, store.AlertFilter{Status: status})
	return len(alerts), nil
}

func (f *fakeStore) UpdateAlertStatus(ctx context.Context, id int64, status models.AlertStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == id && f.alerts[i].Status == models.StatusPending {
			f.alerts[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkAlertRead(ctx context.Context, id int64) (bool, error) {
	return f.UpdateAlertStatus(ctx, id, models.StatusRead)
}

func (f *fakeStore) DismissAlert(ctx context.Context, id int64) (bool, error) {
	return f.UpdateAlertStatus(ctx, id, models.StatusDismissed)
}

func (f *fakeStore) DismissAllAlerts(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := range f.alerts {
		if f.alerts[i].Status == models.StatusPending {
			f.alerts[i].Status = models.StatusDismissed
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteOldAlerts(ctx context.Context, daysOld int) (int, error) {
	return 0, nil
}

func (f *fakeStore) HasRecentAlert(ctx context.Context, alertType models.AlertType, symbol string, within time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-within)
	for _, a := range f.alerts {
		if a.Type == alertType && a.Symbol == symbol && a.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) TodayAlertCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.alerts), nil
}

func (f *fakeStore) GetAlertSummary(ctx context.Context) (*store.AlertSummary, error) {
	return &store.AlertSummary{}, nil
}

func (f *fakeStore) GetAlertConfig(ctx context.Context) models.AlertConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

func (f *fakeStore) UpdateAlertConfig(ctx context.Context, update models.AlertConfigUpdate) (*models.AlertConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update.Apply(&f.config)
	cfg := f.config
	return &cfg, nil
}

func (f *fakeStore) AddWebhook(ctx context.Context, url, name string) (*models.WebhookEndpoint, error) {
	return nil, nil
}
func (f *fakeStore) RemoveWebhook(ctx context.Context, id int64) error            { return nil }
func (f *fakeStore) SetWebhookEnabled(ctx context.Context, id int64, b bool) error { return nil }
func (f *fakeStore) SetWebhookAlertTypes(ctx context.Context, id int64, t []models.AlertType) error {
	return nil
}
func (f *fakeStore) GetWebhook(ctx context.Context, id int64) (*models.WebhookEndpoint, error) {
	return nil, nil
}
func (f *fakeStore) GetWebhooks(ctx context.Context, enabledOnly bool) ([]models.WebhookEndpoint, error) {
	return nil, nil
}
func (f *fakeStore) RecordWebhookResult(ctx context.Context, id int64, ok bool) error { return nil }
func (f *fakeStore) GetWebhookStats(ctx context.Context) (*store.WebhookStats, error) {
	return &store.WebhookStats{}, nil
}

func (f *fakeStore) Watchlist(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.watch...), nil
}
func (f *fakeStore) AddToWatchlist(ctx context.Context, symbol string) error      { return nil }
func (f *fakeStore) RemoveFromWatchlist(ctx context.Context, symbol string) error { return nil }

func (f *fakeStore) Holdings(ctx context.Context) ([]models.Holding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Holding(nil), f.holdings...), nil
}
func (f *fakeStore) UpsertHolding(ctx context.Context, h models.Holding) error { return nil }
func (f *fakeStore) RemoveHolding(ctx context.Context, symbol string) error    { return nil }

func (f *fakeStore) Subscribe(fn func(store.AlertEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeStore) Close() error { return nil }

// fakeProvider serves canned quotes and earnings events.
type fakeProvider struct {
	quotes   map[string]models.Quote
	earnings []models.EarningsEvent
	quoteErr error
}

func (p *fakeProvider) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if p.quoteErr != nil {
		return nil, p.quoteErr
	}
	var out []models.Quote
	for _, s := range symbols {
		if q, ok := p.quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (p *fakeProvider) EventsCalendar(ctx context.Context, symbols []string, lookAheadDays int) (*models.EventsCalendar, error) {
	return &models.EventsCalendar{Earnings: p.earnings}, nil
}

func newTestEngine(fs *fakeStore, fp *fakeProvider) *Engine {
	return NewEngine(fs, fp, &fakeUniverse{store: fs}, zerolog.Nop())
}

type fakeUniverse struct {
	store *fakeStore
}

func (u *fakeUniverse) Watchlist(ctx context.Context) ([]string, error) {
	return u.store.Watchlist(ctx)
}

func (u *fakeUniverse) Holdings(ctx context.Context) ([]models.Holding, error) {
	return u.store.Holdings(ctx)
}

func quote(symbol string, price, changePct float64) models.Quote {
	return models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        price * changePct / 100,
		ChangePercent: changePct,
		Timestamp:     time.Now(),
	}
}

func TestRunAllTriggersDisabledGlobally(t *testing.T) {
	fs := newFakeStore()
	fs.config.Enabled = false
	engine := newTestEngine(fs, &fakeProvider{})

	result := engine.RunAllTriggers(context.Background())

	assert.False(t, result.Checked)
	assert.Zero(t, result.AlertsCreated)
}

func TestPriceDropCreatesAlert(t *testing.T) {
	fs := newFakeStore()
	fs.holdings = []models.Holding{{Symbol: "AAPL", Shares: 10, CostBasis: 150}}
	fp := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": quote("AAPL", 165.30, -8.2),
	}}
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())

	require.True(t, result.Checked)
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Empty(t, result.Errors)

	alerts, _ := fs.GetPendingAlerts(context.Background())
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPriceDrop, alerts[0].Type)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Contains(t, alerts[0].Title, "AAPL down 8.2%")
	assert.Equal(t, -8.2, alerts[0].Data["changePercent"])
}

func TestPriceDropBelowThresholdIgnored(t *testing.T) {
	fs := newFakeStore()
	fs.holdings = []models.Holding{{Symbol: "AAPL", Shares: 10, CostBasis: 150}}
	fp := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": quote("AAPL", 178.0, -2.3),
	}}
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())

	assert.True(t, result.Checked)
	assert.Zero(t, result.AlertsCreated)
}

func TestPriceDropSeverityBoundaries(t *testing.T) {
	cases := []struct {
		changePct float64
		want      models.AlertSeverity
	}{
		{-12.0, models.SeverityCritical},
		{-10.0, models.SeverityCritical},
		{-9.99, models.SeverityWarning},
		{-7.0, models.SeverityWarning},
		{-6.99, models.SeverityInfo},
		{-5.01, models.SeverityInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PriceDropSeverity(tc.changePct), "change %.2f", tc.changePct)
	}
}

func TestPriceSpikeSeverityMirrorsDrop(t *testing.T) {
	assert.Equal(t, models.SeverityCritical, PriceSpikeSeverity(10.5))
	assert.Equal(t, models.SeverityWarning, PriceSpikeSeverity(8.0))
	assert.Equal(t, models.SeverityInfo, PriceSpikeSeverity(5.5))
}

func TestDedupSuppressesSecondAlert(t *testing.T) {
	fs := newFakeStore()
	fs.holdings = []models.Holding{{Symbol: "AAPL", Shares: 1, CostBasis: 150}}
	fp := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": quote("AAPL", 160.0, -9.0),
	}}
	engine := newTestEngine(fs, fp)

	first := engine.RunAllTriggers(context.Background())
	second := engine.RunAllTriggers(context.Background())

	assert.Equal(t, 1, first.AlertsCreated)
	assert.Zero(t, second.AlertsCreated, "same symbol within the dedup window must not alert twice")
}

func TestDailyCapStopsCreation(t *testing.T) {
	fs := newFakeStore()
	cap := 3
	fs.config.MaxAlertsPerDay = cap

	quotes := make(map[string]models.Quote)
	for i := 0; i < 10; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		fs.holdings = append(fs.holdings, models.Holding{Symbol: symbol, Shares: 1, CostBasis: 100})
		quotes[symbol] = quote(symbol, 90.0, -9.0)
	}
	fp := &fakeProvider{quotes: quotes}
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())

	assert.True(t, result.Checked, "hitting the cap still counts as a completed sweep")
	assert.Equal(t, cap, result.AlertsCreated)
}

func TestTypeDisabledSkipsTrigger(t *testing.T) {
	fs := newFakeStore()
	fs.config.PriceDropEnabled = false
	fs.holdings = []models.Holding{{Symbol: "AAPL", Shares: 1, CostBasis: 150}}
	fp := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": quote("AAPL", 160.0, -9.0),
	}}
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())

	assert.True(t, result.Checked)
	assert.Zero(t, result.AlertsCreated)
}

func TestProviderErrorIsRecoverable(t *testing.T) {
	fs := newFakeStore()
	fs.watch = []string{"AAPL"}
	fp := &fakeProvider{quoteErr: fmt.Errorf("upstream down")}
	engine := newTestEngine(fs, fp)

	// Earnings still run even though the quote triggers fail.
	fp.earnings = []models.EarningsEvent{
		{Symbol: "AAPL", Date: time.Now().AddDate(0, 0, 3), Name: "Apple Inc."},
	}

	result := engine.RunAllTriggers(context.Background())

	assert.True(t, result.Checked)
	assert.Equal(t, 1, result.AlertsCreated)
	require.NotEmpty(t, result.Errors)
	joined := strings.Join(result.Errors, "; ")
	assert.Contains(t, joined, "price_drop")
	assert.Contains(t, joined, "upstream down")
}

func TestEarningsSeverityAndExpiry(t *testing.T) {
	fs := newFakeStore()
	fs.watch = []string{"AAPL", "MSFT"}
	tomorrow := time.Now().AddDate(0, 0, 1)
	nextWeek := time.Now().AddDate(0, 0, 6)
	fp := &fakeProvider{
		quotes: map[string]models.Quote{},
		earnings: []models.EarningsEvent{
			{Symbol: "AAPL", Date: tomorrow, Name: "Apple Inc."},
			{Symbol: "MSFT", Date: nextWeek, Name: "Microsoft Corp."},
		},
	}
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())
	assert.Equal(t, 2, result.AlertsCreated)

	aapl, _ := fs.GetAlerts(context.Background(), store.AlertFilter{Symbol: "AAPL"})
	require.Len(t, aapl, 1)
	assert.Equal(t, models.SeverityWarning, aapl[0].Severity, "imminent earnings are a warning")
	require.NotNil(t, aapl[0].ExpiresAt)
	assert.WithinDuration(t, tomorrow, *aapl[0].ExpiresAt, time.Second)

	msft, _ := fs.GetAlerts(context.Background(), store.AlertFilter{Symbol: "MSFT"})
	require.Len(t, msft, 1)
	assert.Equal(t, models.SeverityInfo, msft[0].Severity)
}

func TestWatchlistEventOnlyForUnheldSymbols(t *testing.T) {
	fs := newFakeStore()
	fs.watch = []string{"NVDA", "AAPL"}
	fs.holdings = []models.Holding{{Symbol: "AAPL", Shares: 1, CostBasis: 150}}
	fp := &fakeProvider{quotes: map[string]models.Quote{
		// Moves below the price_drop/spike thresholds but above nothing:
		// use +6% so price_spike fires for both tracked symbols; the
		// watchlist trigger must then dedup against the spike alerts,
		// so use a fresh store per assertion instead.
		"NVDA": quote("NVDA", 920.0, 11.0),
		"AAPL": quote("AAPL", 180.0, 11.0),
	}}

	// Disable the spike trigger so only watchlist_event can fire.
	fs.config.PriceSpikeEnabled = false
	engine := newTestEngine(fs, fp)

	result := engine.RunAllTriggers(context.Background())
	assert.Equal(t, 1, result.AlertsCreated)

	events, _ := fs.GetAlerts(context.Background(), store.AlertFilter{Type: models.AlertWatchlistEvent})
	require.Len(t, events, 1)
	assert.Equal(t, "NVDA", events[0].Symbol, "held symbols are covered by the price triggers")
	assert.Equal(t, models.SeverityWarning, events[0].Severity, "a 10%+ move is a warning")
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, 1, DaysUntil(now.Add(14*time.Hour), now))
	assert.Equal(t, 3, DaysUntil(now.AddDate(0, 0, 3), now))
	assert.Equal(t, -1, DaysUntil(now.Add(-30*time.Hour), now))
}
