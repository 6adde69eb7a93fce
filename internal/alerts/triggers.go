// Package alerts implements the proactive alert engine: trigger
// evaluation, scheduling and the exposed service surface.
package alerts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"finterm/internal/logging"
	"finterm/internal/market"
	"finterm/internal/models"
	"finterm/internal/store"
)

// DedupWindow is the rolling span within which a second alert of the
// same type and symbol is suppressed.
const DedupWindow = 24 * time.Hour

// SweepResult is the outcome of one full trigger sweep.
type SweepResult struct {
	Checked       bool
	AlertsCreated int
	Errors        []string
}

// Engine evaluates all trigger types against fresh market data. It
// owns no persistent state; every write goes through the store.
type Engine struct {
	store    store.AlertStore
	provider market.Provider
	universe market.Universe
	logger   zerolog.Logger
}

// NewEngine creates a new trigger engine.
func NewEngine(alertStore store.AlertStore, provider market.Provider, universe market.Universe, logger zerolog.Logger) *Engine {
	return &Engine{
		store:    alertStore,
		provider: provider,
		universe: universe,
		logger:   logging.WithComponent(logger, "triggers"),
	}
}

// triggerContext is built once per sweep and shared by all evaluators.
// todayCount is advanced in memory after each creation so later
// evaluators in the same sweep respect the daily cap without
// re-querying storage.
type triggerContext struct {
	config     models.AlertConfig
	watchlist  []string
	held       map[string]bool
	tracked    []string // watchlist ∪ holdings, deduplicated, sorted
	todayCount int
}

func (tc *triggerContext) capReached() bool {
	return tc.config.MaxAlertsPerDay > 0 && tc.todayCount >= tc.config.MaxAlertsPerDay
}

// buildContext assembles the shared sweep context. Universe errors are
// returned alongside a usable (possibly empty) context so the sweep
// can still run the evaluators that need no symbols.
func (e *Engine) buildContext(ctx context.Context) (*triggerContext, []string) {
	tc := &triggerContext{
		config: e.store.GetAlertConfig(ctx),
		held:   make(map[string]bool),
	}

	var errs []string

	watchlist, err := e.universe.Watchlist(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("watchlist: %v", err))
	}
	tc.watchlist = watchlist

	holdings, err := e.universe.Holdings(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("holdings: %v", err))
	}

	seen := make(map[string]bool)
	for _, s := range watchlist {
		if !seen[s] {
			seen[s] = true
			tc.tracked = append(tc.tracked, s)
		}
	}
	for _, h := range holdings {
		tc.held[h.Symbol] = true
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			tc.tracked = append(tc.tracked, h.Symbol)
		}
	}
	sort.Strings(tc.tracked)

	count, err := e.store.TodayAlertCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("today count: %v", err))
	}
	tc.todayCount = count

	return tc, errs
}

// RunAllTriggers runs the four evaluators sequentially in declaration
// order. A failing trigger contributes an error string and zero
// alerts; the remaining triggers still run. Checked is false only when
// alerts are globally disabled.
func (e *Engine) RunAllTriggers(ctx context.Context) SweepResult {
	start := time.Now()

	tc, errs := e.buildContext(ctx)
	if !tc.config.Enabled {
		return SweepResult{Checked: false}
	}

	result := SweepResult{Checked: true, Errors: errs}

	type trigger struct {
		name string
		run  func(context.Context, *triggerContext) (int, error)
	}
	triggers := []trigger{
		{string(models.AlertPriceDrop), e.checkPriceDrops},
		{string(models.AlertPriceSpike), e.checkPriceSpikes},
		{string(models.AlertEarningsSoon), e.checkEarnings},
		{string(models.AlertWatchlistEvent), e.checkWatchlistMoves},
	}

	for _, t := range triggers {
		created, err := t.run(ctx, tc)
		result.AlertsCreated += created
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", t.name, err))
		}
	}

	logging.LogSweep(e.logger, result.AlertsCreated, result.Errors, time.Since(start))
	return result
}

// create runs the per-symbol dedup check and, if it passes, creates
// the alert and advances the in-memory daily counter.
func (e *Engine) create(ctx context.Context, tc *triggerContext, alertType models.AlertType, severity models.AlertSeverity, symbol, title, message string, data map[string]interface{}, expiresAt *time.Time) (bool, error) {
	recent, err := e.store.HasRecentAlert(ctx, alertType, symbol, DedupWindow)
	if err != nil {
		return false, err
	}
	if recent {
		return false, nil
	}

	alert, err := e.store.CreateAlert(ctx, alertType, severity, title, message, store.CreateAlertOpts{
		Symbol:    symbol,
		Data:      data,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return false, err
	}

	tc.todayCount++
	logging.LogAlert(e.logger, alert.ID, string(alertType), string(severity), symbol)
	return true, nil
}

// checkPriceDrops creates price_drop alerts for tracked symbols whose
// change percent breaches the configured drop threshold.
func (e *Engine) checkPriceDrops(ctx context.Context, tc *triggerContext) (int, error) {
	if !tc.config.TypeEnabled(models.AlertPriceDrop) || tc.capReached() || len(tc.tracked) == 0 {
		return 0, nil
	}

	quotes, err := e.provider.Quotes(ctx, tc.tracked)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, q := range quotes {
		if tc.capReached() {
			break
		}
		if q.ChangePercent > -tc.config.PriceDropThreshold {
			continue
		}

		ok, err := e.create(ctx, tc,
			models.AlertPriceDrop,
			PriceDropSeverity(q.ChangePercent),
			q.Symbol,
			fmt.Sprintf("%s down %.1f%%", q.Symbol, -q.ChangePercent),
			fmt.Sprintf("%s is trading at %.2f, down %.2f%% on the day.", q.Symbol, q.Price, -q.ChangePercent),
			map[string]interface{}{"price": q.Price, "changePercent": q.ChangePercent},
			nil,
		)
		if err != nil {
			e.logger.Warn().Err(err).Str("symbol", q.Symbol).Msg("price_drop alert creation failed")
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// checkPriceSpikes mirrors checkPriceDrops for upward moves.
func (e *Engine) checkPriceSpikes(ctx context.Context, tc *triggerContext) (int, error) {
	if !tc.config.TypeEnabled(models.AlertPriceSpike) || tc.capReached() || len(tc.tracked) == 0 {
		return 0, nil
	}

	quotes, err := e.provider.Quotes(ctx, tc.tracked)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, q := range quotes {
		if tc.capReached() {
			break
		}
		if q.ChangePercent < tc.config.PriceSpikeThreshold {
			continue
		}

		ok, err := e.create(ctx, tc,
			models.AlertPriceSpike,
			PriceSpikeSeverity(q.ChangePercent),
			q.Symbol,
			fmt.Sprintf("%s up %.1f%%", q.Symbol, q.ChangePercent),
			fmt.Sprintf("%s is trading at %.2f, up %.2f%% on the day.", q.Symbol, q.Price, q.ChangePercent),
			map[string]interface{}{"price": q.Price, "changePercent": q.ChangePercent},
			nil,
		)
		if err != nil {
			e.logger.Warn().Err(err).Str("symbol", q.Symbol).Msg("price_spike alert creation failed")
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// checkEarnings creates earnings_soon alerts for tracked symbols with
// an earnings date inside the look-ahead window. The alert's expiry is
// the earnings date itself.
func (e *Engine) checkEarnings(ctx context.Context, tc *triggerContext) (int, error) {
	if !tc.config.TypeEnabled(models.AlertEarningsSoon) || tc.capReached() || len(tc.tracked) == 0 {
		return 0, nil
	}

	cal, err := e.provider.EventsCalendar(ctx, tc.tracked, tc.config.EarningsLookAheadDays)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, ev := range cal.Earnings {
		if tc.capReached() {
			break
		}

		days := DaysUntil(ev.Date, time.Now())
		if days < 0 || days > tc.config.EarningsLookAheadDays {
			continue
		}

		severity := models.SeverityInfo
		if days <= 1 {
			severity = models.SeverityWarning
		}

		when := fmt.Sprintf("in %d days", days)
		if days == 1 {
			when = "tomorrow"
		} else if days == 0 {
			when = "today"
		}

		expiresAt := ev.Date
		ok, err := e.create(ctx, tc,
			models.AlertEarningsSoon,
			severity,
			ev.Symbol,
			fmt.Sprintf("%s earnings %s", ev.Symbol, when),
			fmt.Sprintf("%s reports earnings on %s.", ev.Symbol, ev.Date.Format("02-Jan-2006")),
			map[string]interface{}{"date": ev.Date.Format("2006-01-02"), "estimate": ev.Estimate},
			&expiresAt,
		)
		if err != nil {
			e.logger.Warn().Err(err).Str("symbol", ev.Symbol).Msg("earnings_soon alert creation failed")
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// checkWatchlistMoves creates watchlist_event alerts for symbols that
// are watched but not held, on absolute moves at or above the drop
// threshold.
func (e *Engine) checkWatchlistMoves(ctx context.Context, tc *triggerContext) (int, error) {
	if !tc.config.TypeEnabled(models.AlertWatchlistEvent) || tc.capReached() {
		return 0, nil
	}

	var watchOnly []string
	for _, s := range tc.watchlist {
		if !tc.held[s] {
			watchOnly = append(watchOnly, s)
		}
	}
	if len(watchOnly) == 0 {
		return 0, nil
	}

	quotes, err := e.provider.Quotes(ctx, watchOnly)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, q := range quotes {
		if tc.capReached() {
			break
		}
		move := math.Abs(q.ChangePercent)
		if move < tc.config.PriceDropThreshold {
			continue
		}

		severity := models.SeverityInfo
		if move >= 10 {
			severity = models.SeverityWarning
		}

		direction := "up"
		if q.ChangePercent < 0 {
			direction = "down"
		}

		ok, err := e.create(ctx, tc,
			models.AlertWatchlistEvent,
			severity,
			q.Symbol,
			fmt.Sprintf("%s moved %.1f%%", q.Symbol, move),
			fmt.Sprintf("Watched symbol %s is %s %.2f%% at %.2f.", q.Symbol, direction, move, q.Price),
			map[string]interface{}{"price": q.Price, "changePercent": q.ChangePercent},
			nil,
		)
		if err != nil {
			e.logger.Warn().Err(err).Str("symbol", q.Symbol).Msg("watchlist_event alert creation failed")
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// PriceDropSeverity maps a negative change percent to a severity.
// Tie-break points are fixed: -10% critical, -7% warning, else info.
func PriceDropSeverity(changePercent float64) models.AlertSeverity {
	switch {
	case changePercent <= -10:
		return models.SeverityCritical
	case changePercent <= -7:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// PriceSpikeSeverity mirrors PriceDropSeverity for upward moves.
func PriceSpikeSeverity(changePercent float64) models.AlertSeverity {
	switch {
	case changePercent >= 10:
		return models.SeverityCritical
	case changePercent >= 7:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// DaysUntil returns the whole number of days from now until date,
// rounded up.
func DaysUntil(date, now time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}
