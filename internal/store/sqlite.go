// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"finterm/internal/errors"
	"finterm/internal/models"
)

// SQLiteStore implements AlertStore using SQLite.
type SQLiteStore struct {
	db *sql.DB

	subMu   sync.RWMutex
	subs    map[int64]func(AlertEvent)
	nextSub int64
}

// NewSQLiteStore creates a new SQLite-based alert store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:   db,
		subs: make(map[int64]func(AlertEvent)),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Alerts table
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		symbol TEXT,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		data TEXT,
		created_at DATETIME NOT NULL,
		expires_at DATETIME
	);

	-- Singleton alert engine configuration
	CREATE TABLE IF NOT EXISTS alert_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Webhook endpoints table
	CREATE TABLE IF NOT EXISTS webhooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		name TEXT,
		enabled INTEGER DEFAULT 1,
		alert_types TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME,
		fail_count INTEGER DEFAULT 0
	);

	-- Watchlist table
	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Holdings table
	CREATE TABLE IF NOT EXISTS holdings (
		symbol TEXT PRIMARY KEY,
		shares REAL NOT NULL,
		cost_basis REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
	CREATE INDEX IF NOT EXISTS idx_alerts_type_symbol ON alerts(type, symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Pub/Sub
// ============================================================================

// Subscribe registers a callback for alert events. The returned
// function removes exactly this registration.
func (s *SQLiteStore) Subscribe(fn func(AlertEvent)) func() {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// publish delivers an event to all subscribers synchronously. A
// panicking subscriber must not block others or fail the write that
// produced the event.
func (s *SQLiteStore) publish(event AlertEvent) {
	s.subMu.RLock()
	callbacks := make([]func(AlertEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		callbacks = append(callbacks, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range callbacks {
		func() {
			defer func() {
				_ = recover()
			}()
			fn(event)
		}()
	}
}

// ============================================================================
// Alerts Methods
// ============================================================================

// CreateAlert inserts a new pending alert and publishes a created event.
func (s *SQLiteStore) CreateAlert(ctx context.Context, alertType models.AlertType, severity models.AlertSeverity, title, message string, opts CreateAlertOpts) (*models.Alert, error) {
	var dataJSON interface{}
	if len(opts.Data) > 0 {
		b, err := json.Marshal(opts.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal alert data: %w", err)
		}
		dataJSON = string(b)
	}

	createdAt := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (type, severity, status, symbol, title, message, data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, alertType, severity, models.StatusPending, opts.Symbol, title, message, dataJSON, createdAt, opts.ExpiresAt)
	if err != nil {
		return nil, errors.NewStorageError("insert", "alerts", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.NewStorageError("insert", "alerts", err)
	}

	alert := &models.Alert{
		ID:        id,
		Type:      alertType,
		Severity:  severity,
		Status:    models.StatusPending,
		Symbol:    opts.Symbol,
		Title:     title,
		Message:   message,
		Data:      opts.Data,
		CreatedAt: createdAt,
		ExpiresAt: opts.ExpiresAt,
	}

	s.publish(AlertEvent{Kind: EventCreated, Alert: *alert})

	return alert, nil
}

const alertColumns = `id, type, severity, status, COALESCE(symbol, ''), title, message, COALESCE(data, ''), created_at, expires_at`

func scanAlert(scanner interface{ Scan(...interface{}) error }) (models.Alert, error) {
	var a models.Alert
	var dataJSON string
	var expiresAt sql.NullTime

	if err := scanner.Scan(&a.ID, &a.Type, &a.Severity, &a.Status, &a.Symbol, &a.Title, &a.Message, &dataJSON, &a.CreatedAt, &expiresAt); err != nil {
		return models.Alert{}, err
	}
	if dataJSON != "" {
		json.Unmarshal([]byte(dataJSON), &a.Data)
	}
	if expiresAt.Valid {
		a.ExpiresAt = &expiresAt.Time
	}
	return a, nil
}

// GetAlerts retrieves alerts matching the filter, newest first.
func (s *SQLiteStore) GetAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query := "SELECT " + alertColumns + " FROM alerts WHERE 1=1"
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("query", "alerts", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// GetPendingAlerts retrieves all pending alerts, newest first.
func (s *SQLiteStore) GetPendingAlerts(ctx context.Context) ([]models.Alert, error) {
	return s.GetAlerts(ctx, AlertFilter{Status: models.StatusPending})
}

// GetAlertCount returns the number of alerts with the given status,
// or all alerts when status is empty.
func (s *SQLiteStore) GetAlertCount(ctx context.Context, status models.AlertStatus) (int, error) {
	query := "SELECT COUNT(*) FROM alerts"
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.NewStorageError("count", "alerts", err)
	}
	return count, nil
}

// UpdateAlertStatus transitions an alert out of the pending state.
// Transitions are monotonic; an alert that already left pending is not
// changed and no event is published. Returns whether a row changed.
func (s *SQLiteStore) UpdateAlertStatus(ctx context.Context, id int64, status models.AlertStatus) (bool, error) {
	if status != models.StatusRead && status != models.StatusDismissed {
		return false, errors.NewValidationError("status", status, "must be read or dismissed")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET status = ? WHERE id = ? AND status = ?
	`, status, id, models.StatusPending)
	if err != nil {
		return false, errors.NewStorageError("update", "alerts", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	var alert models.Alert
	row := s.db.QueryRowContext(ctx, "SELECT "+alertColumns+" FROM alerts WHERE id = ?", id)
	if alert, err = scanAlert(row); err == nil {
		s.publish(AlertEvent{Kind: EventUpdated, Alert: alert})
	}

	return true, nil
}

// MarkAlertRead transitions an alert to read.
func (s *SQLiteStore) MarkAlertRead(ctx context.Context, id int64) (bool, error) {
	return s.UpdateAlertStatus(ctx, id, models.StatusRead)
}

// DismissAlert transitions an alert to dismissed.
func (s *SQLiteStore) DismissAlert(ctx context.Context, id int64) (bool, error) {
	return s.UpdateAlertStatus(ctx, id, models.StatusDismissed)
}

// DismissAllAlerts dismisses every pending alert and returns how many
// rows changed.
func (s *SQLiteStore) DismissAllAlerts(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET status = ? WHERE status = ?
	`, models.StatusDismissed, models.StatusPending)
	if err != nil {
		return 0, errors.NewStorageError("update", "alerts", err)
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// DeleteOldAlerts removes alerts older than daysOld days and returns
// how many rows were deleted.
func (s *SQLiteStore) DeleteOldAlerts(ctx context.Context, daysOld int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -daysOld)
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM alerts WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, errors.NewStorageError("delete", "alerts", err)
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// HasRecentAlert reports whether an alert of the same type (and symbol,
// when given) was created within the window. This is the deduplication
// primitive consulted by every trigger before creating an alert.
func (s *SQLiteStore) HasRecentAlert(ctx context.Context, alertType models.AlertType, symbol string, within time.Duration) (bool, error) {
	query := "SELECT COUNT(*) FROM alerts WHERE type = ? AND created_at >= ?"
	args := []interface{}{alertType, time.Now().Add(-within)}

	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, errors.NewStorageError("count", "alerts", err)
	}
	return count > 0, nil
}

// TodayAlertCount returns the number of alerts created since local
// start-of-day, used for the daily cap.
func (s *SQLiteStore) TodayAlertCount(ctx context.Context) (int, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alerts WHERE created_at >= ?
	`, startOfDay).Scan(&count)
	if err != nil {
		return 0, errors.NewStorageError("count", "alerts", err)
	}
	return count, nil
}

// GetAlertSummary aggregates pending alerts for dashboard display.
func (s *SQLiteStore) GetAlertSummary(ctx context.Context) (*AlertSummary, error) {
	summary := &AlertSummary{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM alerts WHERE status = ? GROUP BY severity
	`, models.StatusPending)
	if err != nil {
		return nil, errors.NewStorageError("query", "alerts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity models.AlertSeverity
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan severity count: %w", err)
		}
		summary.Pending += count
		switch severity {
		case models.SeverityCritical:
			summary.Critical = count
		case models.SeverityWarning:
			summary.Warning = count
		case models.SeverityInfo:
			summary.Info = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	top, err := s.GetAlerts(ctx, AlertFilter{Status: models.StatusPending, Limit: 10})
	if err != nil {
		return nil, err
	}
	summary.Alerts = top

	return summary, nil
}

// ============================================================================
// Alert Config Methods
// ============================================================================

// GetAlertConfig reads the singleton configuration. On a missing or
// unreadable record it returns the hardcoded defaults rather than an
// error.
func (s *SQLiteStore) GetAlertConfig(ctx context.Context) models.AlertConfig {
	cfg := models.DefaultAlertConfig()

	var configJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT config FROM alert_config WHERE id = 1
	`).Scan(&configJSON)
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return models.DefaultAlertConfig()
	}
	return cfg
}

// UpdateAlertConfig merges a partial update over the current
// configuration and persists the result.
func (s *SQLiteStore) UpdateAlertConfig(ctx context.Context, update models.AlertConfigUpdate) (*models.AlertConfig, error) {
	cfg := s.GetAlertConfig(ctx)
	update.Apply(&cfg)

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO alert_config (id, config, updated_at)
		VALUES (1, ?, ?)
	`, string(configJSON), time.Now())
	if err != nil {
		return nil, errors.NewStorageError("upsert", "alert_config", err)
	}

	return &cfg, nil
}

// ============================================================================
// Webhook Methods
// ============================================================================

const webhookColumns = `id, url, COALESCE(name, ''), enabled, COALESCE(alert_types, ''), created_at, last_used_at, fail_count`

func scanWebhook(scanner interface{ Scan(...interface{}) error }) (models.WebhookEndpoint, error) {
	var w models.WebhookEndpoint
	var enabled int
	var typesJSON string
	var lastUsed sql.NullTime

	if err := scanner.Scan(&w.ID, &w.URL, &w.Name, &enabled, &typesJSON, &w.CreatedAt, &lastUsed, &w.FailCount); err != nil {
		return models.WebhookEndpoint{}, err
	}
	w.Enabled = enabled == 1
	if typesJSON != "" {
		json.Unmarshal([]byte(typesJSON), &w.AlertTypes)
	}
	if lastUsed.Valid {
		w.LastUsedAt = &lastUsed.Time
	}
	return w, nil
}

// AddWebhook registers a new endpoint, enabled and with a zero failure
// count.
func (s *SQLiteStore) AddWebhook(ctx context.Context, url, name string) (*models.WebhookEndpoint, error) {
	if url == "" {
		return nil, errors.NewValidationError("url", url, "must not be empty")
	}

	createdAt := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO webhooks (url, name, enabled, fail_count, created_at)
		VALUES (?, ?, 1, 0, ?)
	`, url, name, createdAt)
	if err != nil {
		return nil, errors.NewStorageError("insert", "webhooks", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.NewStorageError("insert", "webhooks", err)
	}

	return &models.WebhookEndpoint{
		ID:        id,
		URL:       url,
		Name:      name,
		Enabled:   true,
		CreatedAt: createdAt,
	}, nil
}

// RemoveWebhook deletes an endpoint.
func (s *SQLiteStore) RemoveWebhook(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return errors.NewStorageError("delete", "webhooks", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.ErrWebhookNotFound
	}
	return nil
}

// SetWebhookEnabled toggles an endpoint. Re-enabling also resets the
// failure count so a suspended endpoint gets a fresh start.
func (s *SQLiteStore) SetWebhookEnabled(ctx context.Context, id int64, enabled bool) error {
	enabledInt := 0
	query := `UPDATE webhooks SET enabled = ? WHERE id = ?`
	if enabled {
		enabledInt = 1
		query = `UPDATE webhooks SET enabled = ?, fail_count = 0 WHERE id = ?`
	}

	result, err := s.db.ExecContext(ctx, query, enabledInt, id)
	if err != nil {
		return errors.NewStorageError("update", "webhooks", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.ErrWebhookNotFound
	}
	return nil
}

// SetWebhookAlertTypes replaces an endpoint's alert-type allow-list.
// An empty list means the endpoint receives all alert types.
func (s *SQLiteStore) SetWebhookAlertTypes(ctx context.Context, id int64, types []models.AlertType) error {
	var typesJSON interface{}
	if len(types) > 0 {
		b, err := json.Marshal(types)
		if err != nil {
			return fmt.Errorf("failed to marshal alert types: %w", err)
		}
		typesJSON = string(b)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE webhooks SET alert_types = ? WHERE id = ?
	`, typesJSON, id)
	if err != nil {
		return errors.NewStorageError("update", "webhooks", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.ErrWebhookNotFound
	}
	return nil
}

// GetWebhook retrieves a single endpoint by ID.
func (s *SQLiteStore) GetWebhook(ctx context.Context, id int64) (*models.WebhookEndpoint, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+webhookColumns+" FROM webhooks WHERE id = ?", id)
	w, err := scanWebhook(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrWebhookNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("query", "webhooks", err)
	}
	return &w, nil
}

// GetWebhooks retrieves endpoints, optionally only enabled ones.
func (s *SQLiteStore) GetWebhooks(ctx context.Context, enabledOnly bool) ([]models.WebhookEndpoint, error) {
	query := "SELECT " + webhookColumns + " FROM webhooks"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStorageError("query", "webhooks", err)
	}
	defer rows.Close()

	var endpoints []models.WebhookEndpoint
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		endpoints = append(endpoints, w)
	}

	return endpoints, rows.Err()
}

// RecordWebhookResult updates an endpoint's delivery accounting.
// Success resets the failure count; any failure increments it.
func (s *SQLiteStore) RecordWebhookResult(ctx context.Context, id int64, ok bool) error {
	var err error
	if ok {
		_, err = s.db.ExecContext(ctx, `
			UPDATE webhooks SET fail_count = 0, last_used_at = ? WHERE id = ?
		`, time.Now(), id)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE webhooks SET fail_count = fail_count + 1 WHERE id = ?
		`, id)
	}
	if err != nil {
		return errors.NewStorageError("update", "webhooks", err)
	}
	return nil
}

// GetWebhookStats aggregates endpoint state for display.
func (s *SQLiteStore) GetWebhookStats(ctx context.Context) (*WebhookStats, error) {
	stats := &WebhookStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN enabled = 1 THEN 1 ELSE 0 END),
		       SUM(CASE WHEN fail_count >= 3 THEN 1 ELSE 0 END)
		FROM webhooks
	`).Scan(&stats.Total, nullableInt(&stats.Enabled), nullableInt(&stats.Failing))
	if err != nil {
		return nil, errors.NewStorageError("query", "webhooks", err)
	}
	return stats, nil
}

// nullableInt scans a SUM() result that is NULL over an empty table.
func nullableInt(target *int) *nullInt {
	return &nullInt{target: target}
}

type nullInt struct {
	target *int
}

func (n *nullInt) Scan(value interface{}) error {
	if value == nil {
		*n.target = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		*n.target = int(v)
	case float64:
		*n.target = int(v)
	default:
		return fmt.Errorf("unexpected type %T for count", value)
	}
	return nil
}

// ============================================================================
// Watchlist & Holdings Methods
// ============================================================================

// Watchlist retrieves the watched symbols in insertion order.
func (s *SQLiteStore) Watchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, errors.NewStorageError("query", "watchlist", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// AddToWatchlist adds a symbol to the watchlist.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	if symbol == "" {
		return errors.NewValidationError("symbol", symbol, "must not be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist (symbol) VALUES (?)
	`, symbol)
	if err != nil {
		return errors.NewStorageError("insert", "watchlist", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist WHERE symbol = ?
	`, symbol)
	if err != nil {
		return errors.NewStorageError("delete", "watchlist", err)
	}
	return nil
}

// Holdings retrieves portfolio positions.
func (s *SQLiteStore) Holdings(ctx context.Context) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, shares, cost_basis FROM holdings ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, errors.NewStorageError("query", "holdings", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Symbol, &h.Shares, &h.CostBasis); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// UpsertHolding inserts or replaces a portfolio position.
func (s *SQLiteStore) UpsertHolding(ctx context.Context, holding models.Holding) error {
	if holding.Symbol == "" {
		return errors.NewValidationError("symbol", holding.Symbol, "must not be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO holdings (symbol, shares, cost_basis, updated_at)
		VALUES (?, ?, ?, ?)
	`, holding.Symbol, holding.Shares, holding.CostBasis, time.Now())
	if err != nil {
		return errors.NewStorageError("upsert", "holdings", err)
	}
	return nil
}

// RemoveHolding deletes a portfolio position.
func (s *SQLiteStore) RemoveHolding(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM holdings WHERE symbol = ?
	`, symbol)
	if err != nil {
		return errors.NewStorageError("delete", "holdings", err)
	}
	return nil
}
