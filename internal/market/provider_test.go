package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finterm/internal/errors"
)

func TestQuotesBatchedRequest(t *testing.T) {
	var gotSymbols, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL","price":165.30,"change":-14.77,"changePercent":-8.2},
			{"symbol":"MSFT","price":412.10,"change":3.05,"changePercent":0.75}
		]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, APIKey: "k123"})

	quotes, err := p.Quotes(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}

	if gotSymbols != "AAPL,MSFT" {
		t.Errorf("symbols param = %q, want AAPL,MSFT", gotSymbols)
	}
	if gotAuth != "Bearer k123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if quotes[0].Symbol != "AAPL" || quotes[0].ChangePercent != -8.2 {
		t.Errorf("unexpected quote: %+v", quotes[0])
	}
}

func TestQuotesEmptySymbolList(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{BaseURL: "http://unused.invalid"})

	quotes, err := p.Quotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty symbol list should not error: %v", err)
	}
	if quotes != nil {
		t.Errorf("expected no quotes, got %v", quotes)
	}
}

func TestEventsCalendarParsesDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("days") != "7" {
			t.Errorf("days param = %q, want 7", r.URL.Query().Get("days"))
		}
		w.Write([]byte(`{"earnings":[
			{"symbol":"AAPL","date":"2026-09-03","name":"Apple Inc.","estimate":2.45},
			{"symbol":"BAD","date":"not-a-date","name":"Broken"}
		],"dividends":[
			{"symbol":"MSFT","exDate":"2026-09-10","amount":0.83},
			{"symbol":"BAD","exDate":"soon","amount":1.00}
		]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})

	cal, err := p.EventsCalendar(context.Background(), []string{"AAPL"}, 7)
	if err != nil {
		t.Fatalf("EventsCalendar failed: %v", err)
	}
	// Unparseable rows are dropped, not fatal.
	if len(cal.Earnings) != 1 {
		t.Fatalf("got %d earnings events, want 1", len(cal.Earnings))
	}
	want := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	if !cal.Earnings[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", cal.Earnings[0].Date, want)
	}
	if len(cal.Dividends) != 1 {
		t.Fatalf("got %d dividend events, want 1", len(cal.Dividends))
	}
	if cal.Dividends[0].Symbol != "MSFT" || cal.Dividends[0].Amount != 0.83 {
		t.Errorf("unexpected dividend: %+v", cal.Dividends[0])
	}
}

func TestEventsCalendarEmptySymbolList(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{BaseURL: "http://unused.invalid"})

	cal, err := p.EventsCalendar(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("empty symbol list should not error: %v", err)
	}
	if len(cal.Earnings) != 0 || len(cal.Dividends) != 0 {
		t.Errorf("expected empty calendar, got %+v", cal)
	}
}

func TestQuotesRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
	p.retry.MaxAttempts = 1

	_, err := p.Quotes(context.Background(), []string{"AAPL"})
	if !errors.Is(err, errors.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestQuotesRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"quotes":[{"symbol":"AAPL","price":170.0,"change":0,"changePercent":0}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})

	quotes, err := p.Quotes(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Quotes failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(quotes) != 1 {
		t.Errorf("got %d quotes, want 1", len(quotes))
	}
}

func TestProviderBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
	// Tight retry/breaker settings to keep the test fast.
	p.retry.MaxAttempts = 1
	p.breaker = NewBreaker(BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Hour})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := p.Quotes(ctx, []string{"AAPL"}); err == nil {
			t.Fatalf("request %d should have failed", i)
		}
	}

	// The upstream is now shut out entirely.
	srv.Close()
	_, err := p.Quotes(ctx, []string{"AAPL"})
	if !errors.Is(err, errors.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}
