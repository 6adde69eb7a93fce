package alerts

import (
	"context"

	"github.com/rs/zerolog"

	"finterm/internal/logging"
	"finterm/internal/market"
	"finterm/internal/models"
	"finterm/internal/store"
)

// Notifier forwards a newly created alert to external receivers.
type Notifier interface {
	DispatchAlert(ctx context.Context, alert models.Alert)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, alert models.Alert)

// DispatchAlert calls f.
func (f NotifierFunc) DispatchAlert(ctx context.Context, alert models.Alert) {
	f(ctx, alert)
}

// Service is the single entry point for alert functionality: it owns
// the trigger engine and monitor, and fans newly created alerts out to
// the notifier.
type Service struct {
	store   store.AlertStore
	engine  *Engine
	monitor *Monitor
	logger  zerolog.Logger

	unsubscribe func()
}

// NewService wires the engine, monitor and notifier together. The
// notifier may be nil, in which case alerts are stored but never
// forwarded. Dispatch happens on the sweep goroutine; the notifier is
// expected to do its own fan-out.
func NewService(alertStore store.AlertStore, provider market.Provider, notifier Notifier, logger zerolog.Logger) *Service {
	engine := NewEngine(alertStore, provider, market.NewStoreUniverse(alertStore), logger)
	s := &Service{
		store:   alertStore,
		engine:  engine,
		monitor: NewMonitor(engine, alertStore, logger),
		logger:  logging.WithComponent(logger, "alerts"),
	}

	if notifier != nil {
		s.unsubscribe = alertStore.Subscribe(func(ev store.AlertEvent) {
			if ev.Kind == store.EventCreated {
				notifier.DispatchAlert(context.Background(), ev.Alert)
			}
		})
	}

	return s
}

// Close detaches the service from the store and stops the monitor.
func (s *Service) Close() {
	s.monitor.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// OnAlert registers a callback invoked for every alert lifecycle
// event. The returned function removes the registration.
func (s *Service) OnAlert(fn func(store.AlertEvent)) func() {
	return s.store.Subscribe(fn)
}

// StartMonitor launches the background monitor. Returns false if it is
// already running.
func (s *Service) StartMonitor(ctx context.Context) bool {
	return s.monitor.Start(ctx)
}

// StopMonitor halts the background monitor. Returns false if it was
// not running.
func (s *Service) StopMonitor() bool {
	return s.monitor.Stop()
}

// MonitorStatus reports the monitor's current state.
func (s *Service) MonitorStatus() MonitorStatus {
	return s.monitor.Status()
}

// IsMonitorRunning reports whether the background monitor is active.
func (s *Service) IsMonitorRunning() bool {
	return s.monitor.Status().Running
}

// CheckNow runs a single sweep immediately.
func (s *Service) CheckNow(ctx context.Context) SweepResult {
	return s.monitor.ManualCheck(ctx)
}

// Alerts returns alerts matching the filter, newest first.
func (s *Service) Alerts(ctx context.Context, filter store.AlertFilter) ([]models.Alert, error) {
	return s.store.GetAlerts(ctx, filter)
}

// Summary aggregates pending alerts for display.
func (s *Service) Summary(ctx context.Context) (*store.AlertSummary, error) {
	return s.store.GetAlertSummary(ctx)
}

// MarkRead transitions a pending alert to read.
func (s *Service) MarkRead(ctx context.Context, id int64) (bool, error) {
	return s.store.MarkAlertRead(ctx, id)
}

// Dismiss transitions a pending alert to dismissed.
func (s *Service) Dismiss(ctx context.Context, id int64) (bool, error) {
	return s.store.DismissAlert(ctx, id)
}

// DismissAll dismisses every pending alert and returns the count.
func (s *Service) DismissAll(ctx context.Context) (int, error) {
	return s.store.DismissAllAlerts(ctx)
}

// Config returns the current alert configuration.
func (s *Service) Config(ctx context.Context) models.AlertConfig {
	return s.store.GetAlertConfig(ctx)
}

// UpdateConfig merges a partial update into the stored configuration.
func (s *Service) UpdateConfig(ctx context.Context, update models.AlertConfigUpdate) (*models.AlertConfig, error) {
	return s.store.UpdateAlertConfig(ctx, update)
}
