package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finterm/internal/models"
	"finterm/internal/store"
)

func newTestSetup(t *testing.T) (*store.SQLiteStore, *Dispatcher) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "webhook_test.db")
	alertStore, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { alertStore.Close() })
	return alertStore, NewDispatcher(alertStore, zerolog.Nop())
}

func testAlert(alertType models.AlertType) models.Alert {
	return models.Alert{
		ID:        42,
		Type:      alertType,
		Severity:  models.SeverityWarning,
		Status:    models.StatusPending,
		Symbol:    "AAPL",
		Title:     "AAPL down 8.2%",
		Message:   "AAPL is trading at 165.30, down 8.20% on the day.",
		Data:      map[string]interface{}{"price": 165.30, "changePercent": -8.2},
		CreatedAt: time.Now(),
	}
}

func TestDispatchAlertPayloadShape(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "finterm/1.0", r.Header.Get("User-Agent"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := alertStore.AddWebhook(ctx, srv.URL, "test")
	require.NoError(t, err)

	result := dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))
	assert.Equal(t, DispatchResult{Sent: 1}, result)

	select {
	case body := <-received:
		assert.Equal(t, "alert", body["event"])
		assert.NotEmpty(t, body["timestamp"])

		alert, ok := body["alert"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(42), alert["id"])
		assert.Equal(t, "price_drop", alert["type"])
		assert.Equal(t, "warning", alert["severity"])
		assert.Equal(t, "AAPL", alert["symbol"])
		assert.Equal(t, "AAPL down 8.2%", alert["title"])
		assert.NotEmpty(t, alert["createdAt"])
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never received the alert")
	}
}

func TestDispatchSkipsMismatchedAllowList(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep, err := alertStore.AddWebhook(ctx, srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, alertStore.SetWebhookAlertTypes(ctx, ep.ID, []models.AlertType{models.AlertEarningsSoon}))

	result := dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))
	assert.Zero(t, calls, "price_drop must not reach an earnings-only endpoint")
	assert.Equal(t, DispatchResult{}, result, "skipped endpoints count in neither bucket")

	result = dispatcher.DispatchAlert(ctx, testAlert(models.AlertEarningsSoon))
	assert.Equal(t, 1, calls)
	assert.Equal(t, DispatchResult{Sent: 1}, result)
}

func TestDispatchSuspendsAfterFailureCeiling(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ep, err := alertStore.AddWebhook(ctx, srv.URL, "")
	require.NoError(t, err)

	// Drive the endpoint to the failure ceiling, then keep dispatching.
	for i := 0; i < models.WebhookFailureCeiling+3; i++ {
		dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))
	}

	assert.Equal(t, models.WebhookFailureCeiling, calls,
		"suspended endpoint must get no further delivery attempts")

	got, err := alertStore.GetWebhook(ctx, ep.ID)
	require.NoError(t, err)
	assert.True(t, got.Suspended())
	assert.Equal(t, models.WebhookFailureCeiling, got.FailCount)

	result := dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))
	assert.Equal(t, DispatchResult{}, result, "suspended endpoint yields no attempts")
}

func TestDispatchFailureDoesNotBlockOthers(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	good := 0
	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		good++
		w.WriteHeader(http.StatusOK)
	}))
	defer goodSrv.Close()

	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badSrv.Close()

	badEp, err := alertStore.AddWebhook(ctx, badSrv.URL, "bad")
	require.NoError(t, err)
	_, err = alertStore.AddWebhook(ctx, goodSrv.URL, "good")
	require.NoError(t, err)

	result := dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))

	assert.Equal(t, 1, good, "healthy endpoint must still be delivered to")
	assert.Equal(t, DispatchResult{Sent: 1, Failed: 1}, result)

	gotBad, _ := alertStore.GetWebhook(ctx, badEp.ID)
	assert.Equal(t, 1, gotBad.FailCount)
}

func TestDispatchSkipsDisabledEndpoints(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep, err := alertStore.AddWebhook(ctx, srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, alertStore.SetWebhookEnabled(ctx, ep.ID, false))

	dispatcher.DispatchAlert(ctx, testAlert(models.AlertPriceDrop))
	assert.Zero(t, calls)
}

func TestTestWebhook(t *testing.T) {
	alertStore, dispatcher := newTestSetup(t)
	ctx := context.Background()

	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent) // any 2xx is success
	}))
	defer srv.Close()

	ep, err := alertStore.AddWebhook(ctx, srv.URL, "")
	require.NoError(t, err)

	require.NoError(t, dispatcher.TestWebhook(ctx, ep.ID))

	alert, ok := body["alert"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Test alert", alert["title"])

	got, _ := alertStore.GetWebhook(ctx, ep.ID)
	assert.NotNil(t, got.LastUsedAt, "test delivery counts as a real one")
}

func TestTestWebhookUnknownID(t *testing.T) {
	_, dispatcher := newTestSetup(t)

	err := dispatcher.TestWebhook(context.Background(), 999)
	assert.Error(t, err)
}
