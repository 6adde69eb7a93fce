package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"finterm/internal/logging"
	"finterm/internal/store"
)

const (
	pruneInterval  = 6 * time.Hour
	pruneAfterDays = 30
)

// MonitorStatus is a point-in-time snapshot of the background monitor.
type MonitorStatus struct {
	Running    bool
	LastCheck  time.Time
	LastResult *SweepResult
}

// Monitor schedules periodic trigger sweeps and prunes old alerts. At
// most one sweep runs at a time; a tick arriving while a sweep is in
// flight is skipped rather than queued.
type Monitor struct {
	engine *Engine
	store  store.AlertStore
	logger zerolog.Logger

	mu         sync.Mutex
	running    bool
	inFlight   bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastCheck  time.Time
	lastResult *SweepResult
}

// NewMonitor creates a monitor around the given engine.
func NewMonitor(engine *Engine, alertStore store.AlertStore, logger zerolog.Logger) *Monitor {
	return &Monitor{
		engine: engine,
		store:  alertStore,
		logger: logging.WithComponent(logger, "monitor"),
	}
}

// Start launches the background loop. It returns false if the monitor
// is already running or alerts are disabled globally. The check
// interval is read from the alert config at start time.
func (m *Monitor) Start(ctx context.Context) bool {
	cfg := m.engine.store.GetAlertConfig(ctx)
	if !cfg.Enabled {
		m.logger.Info().Msg("alerts disabled, monitor not started")
		return false
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return false
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go m.loop(ctx, interval, stopCh, doneCh)
	m.logger.Info().Dur("interval", interval).Msg("monitor started")
	return true
}

// Stop signals the loop to exit and waits for it. It returns false if
// the monitor was not running.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
	m.logger.Info().Msg("monitor stopped")
	return true
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status returns a snapshot of the monitor's state.
func (m *Monitor) Status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MonitorStatus{
		Running:    m.running,
		LastCheck:  m.lastCheck,
		LastResult: m.lastResult,
	}
}

// ManualCheck runs one sweep immediately, independent of the schedule.
func (m *Monitor) ManualCheck(ctx context.Context) SweepResult {
	return m.check(ctx)
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pruner := time.NewTicker(pruneInterval)
	defer pruner.Stop()

	// Run the first sweep right away instead of waiting a full interval.
	m.check(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		case <-pruner.C:
			m.prune(ctx)
		}
	}
}

// check runs one sweep with re-entrancy protection and panic recovery.
// A panicking sweep is recorded as a failed result, never crashes the
// loop.
func (m *Monitor) check(ctx context.Context) (result SweepResult) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return SweepResult{Checked: false, Errors: []string{"sweep already in flight"}}
	}
	m.inFlight = true
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("sweep panicked")
			result = SweepResult{Checked: true, Errors: []string{fmt.Sprintf("sweep panic: %v", r)}}
		}

		m.mu.Lock()
		m.inFlight = false
		m.lastCheck = time.Now()
		r := result
		m.lastResult = &r
		m.mu.Unlock()
	}()

	result = m.engine.RunAllTriggers(ctx)
	return result
}

func (m *Monitor) prune(ctx context.Context) {
	deleted, err := m.store.DeleteOldAlerts(ctx, pruneAfterDays)
	if err != nil {
		m.logger.Warn().Err(err).Msg("alert prune failed")
		return
	}
	if deleted > 0 {
		m.logger.Info().Int("deleted", deleted).Msg("pruned old alerts")
	}
}
