package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"finterm/internal/models"
)

// Property: alert status transitions are monotonic. Whatever sequence
// of read/dismiss operations is applied to a fresh alert, exactly the
// first one changes the row and the final status equals its target.
func TestProperty_StatusTransitionMonotonic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "status_property.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	transitionGen := gen.SliceOfN(4, gen.OneConstOf(models.StatusRead, models.StatusDismissed))

	properties.Property("first transition wins, later ones are no-ops", prop.ForAll(
		func(transitions []models.AlertStatus) bool {
			ctx := context.Background()

			alert, err := store.CreateAlert(ctx, models.AlertPriceDrop, models.SeverityInfo, "t", "m", CreateAlertOpts{})
			if err != nil {
				t.Logf("CreateAlert failed: %v", err)
				return false
			}

			for i, target := range transitions {
				changed, err := store.UpdateAlertStatus(ctx, alert.ID, target)
				if err != nil {
					t.Logf("UpdateAlertStatus failed: %v", err)
					return false
				}
				if (i == 0) != changed {
					t.Logf("transition %d: changed=%v", i, changed)
					return false
				}
			}

			got, err := store.GetAlerts(ctx, AlertFilter{Status: transitions[0], Limit: 0})
			if err != nil {
				return false
			}
			for _, a := range got {
				if a.ID == alert.ID {
					return true
				}
			}
			t.Logf("alert %d not found with status %s", alert.ID, transitions[0])
			return false
		},
		transitionGen,
	))

	properties.TestingRun(t)
}

// Property: merging any partial configuration update then re-reading
// yields exactly the merged document, and applying the same update a
// second time changes nothing.
func TestProperty_ConfigUpdateMergeIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config_property.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("update then read round-trips and re-applying is idempotent", prop.ForAll(
		func(enabled bool, dropThreshold, spikeThreshold float64, lookAhead, maxPerDay int) bool {
			ctx := context.Background()

			update := models.AlertConfigUpdate{
				Enabled:               &enabled,
				PriceDropThreshold:    &dropThreshold,
				PriceSpikeThreshold:   &spikeThreshold,
				EarningsLookAheadDays: &lookAhead,
				MaxAlertsPerDay:       &maxPerDay,
			}

			first, err := store.UpdateAlertConfig(ctx, update)
			if err != nil {
				t.Logf("UpdateAlertConfig failed: %v", err)
				return false
			}

			read := store.GetAlertConfig(ctx)
			if read != *first {
				t.Logf("read-back mismatch: %+v vs %+v", read, *first)
				return false
			}

			second, err := store.UpdateAlertConfig(ctx, update)
			if err != nil {
				return false
			}
			return *second == *first
		},
		gen.Bool(),
		gen.Float64Range(0.1, 50.0),
		gen.Float64Range(0.1, 50.0),
		gen.IntRange(1, 30),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}

// Property: webhook endpoints round-trip through storage, including
// the alert-type allow-list.
func TestProperty_WebhookRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "webhook_property.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	allTypes := []models.AlertType{
		models.AlertPriceDrop, models.AlertPriceSpike,
		models.AlertEarningsSoon, models.AlertWatchlistEvent,
	}

	properties.Property("add, set types, read back", prop.ForAll(
		func(nameIdx, typeCount int) bool {
			ctx := context.Background()
			names := []string{"", "slack", "discord", "pager"}
			name := names[nameIdx%len(names)]

			ep, err := store.AddWebhook(ctx, "https://hooks.example.com/x", name)
			if err != nil {
				t.Logf("AddWebhook failed: %v", err)
				return false
			}

			types := allTypes[:typeCount%len(allTypes)]
			if err := store.SetWebhookAlertTypes(ctx, ep.ID, types); err != nil {
				t.Logf("SetWebhookAlertTypes failed: %v", err)
				return false
			}

			got, err := store.GetWebhook(ctx, ep.ID)
			if err != nil {
				t.Logf("GetWebhook failed: %v", err)
				return false
			}
			if got.Name != name || !got.Enabled || got.FailCount != 0 {
				return false
			}
			if len(got.AlertTypes) != len(types) {
				return false
			}
			for i, at := range types {
				if got.AlertTypes[i] != at {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
