// Package market provides market-data provider interfaces and implementations.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finterm/internal/errors"
	"finterm/internal/models"
	"finterm/pkg/utils"
)

// Provider defines the interface for market-data retrieval. Quote
// fetches are batched; per-symbol calls are deliberately not offered.
type Provider interface {
	Quotes(ctx context.Context, symbols []string) ([]models.Quote, error)
	EventsCalendar(ctx context.Context, symbols []string, lookAheadDays int) (*models.EventsCalendar, error)
}

// Universe supplies the user's tracked symbols.
type Universe interface {
	Watchlist(ctx context.Context) ([]string, error)
	Holdings(ctx context.Context) ([]models.Holding, error)
}

// HTTPConfig holds HTTP provider configuration.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPProvider fetches quotes and calendars from a JSON quote API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *Breaker
	retry   utils.RetryConfig
}

// NewHTTPProvider creates a new HTTP market-data provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: NewBreaker(DefaultBreakerConfig()),
		retry:   utils.DefaultRetryConfig(),
	}
}

type quoteResponse struct {
	Quotes []struct {
		Symbol        string  `json:"symbol"`
		Price         float64 `json:"price"`
		Change        float64 `json:"change"`
		ChangePercent float64 `json:"changePercent"`
	} `json:"quotes"`
}

// Quotes fetches current quotes for the given symbols in one batched
// request.
func (p *HTTPProvider) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp quoteResponse
	if err := p.getJSON(ctx, "/quotes", params, &resp); err != nil {
		return nil, errors.NewDataError("quotes", strings.Join(symbols, ","), "fetch failed", err)
	}

	now := time.Now()
	quotes := make([]models.Quote, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		quotes = append(quotes, models.Quote{
			Symbol:        q.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Timestamp:     now,
		})
	}
	return quotes, nil
}

type calendarResponse struct {
	Earnings []struct {
		Symbol   string  `json:"symbol"`
		Date     string  `json:"date"`
		Name     string  `json:"name"`
		Estimate float64 `json:"estimate"`
	} `json:"earnings"`
	Dividends []struct {
		Symbol string  `json:"symbol"`
		ExDate string  `json:"exDate"`
		Amount float64 `json:"amount"`
	} `json:"dividends"`
}

// EventsCalendar fetches upcoming earnings and dividend events for the
// given symbols within the look-ahead window. Rows with unparseable
// dates are dropped.
func (p *HTTPProvider) EventsCalendar(ctx context.Context, symbols []string, lookAheadDays int) (*models.EventsCalendar, error) {
	if len(symbols) == 0 {
		return &models.EventsCalendar{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("days", fmt.Sprintf("%d", lookAheadDays))

	var resp calendarResponse
	if err := p.getJSON(ctx, "/calendar/events", params, &resp); err != nil {
		return nil, errors.NewDataError("calendar", strings.Join(symbols, ","), "fetch failed", err)
	}

	cal := &models.EventsCalendar{
		Earnings:  make([]models.EarningsEvent, 0, len(resp.Earnings)),
		Dividends: make([]models.DividendEvent, 0, len(resp.Dividends)),
	}
	for _, e := range resp.Earnings {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		cal.Earnings = append(cal.Earnings, models.EarningsEvent{
			Symbol:   e.Symbol,
			Date:     date,
			Name:     e.Name,
			Estimate: e.Estimate,
		})
	}
	for _, d := range resp.Dividends {
		exDate, err := time.Parse("2006-01-02", d.ExDate)
		if err != nil {
			continue
		}
		cal.Dividends = append(cal.Dividends, models.DividendEvent{
			Symbol: d.Symbol,
			ExDate: exDate,
			Amount: d.Amount,
		})
	}
	return cal, nil
}

// getJSON performs one GET with retry, breaker accounting and JSON
// decoding.
func (p *HTTPProvider) getJSON(ctx context.Context, path string, params url.Values, target interface{}) error {
	if err := p.breaker.Allow(); err != nil {
		return err
	}

	err := utils.Retry(ctx, p.retry, func() error {
		return p.doGet(ctx, path, params, target)
	})
	if err != nil {
		p.breaker.RecordFailure()
		return err
	}

	p.breaker.RecordSuccess()
	return nil
}

func (p *HTTPProvider) doGet(ctx context.Context, path string, params url.Values, target interface{}) error {
	reqURL := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// universeSource is the subset of the alert store the universe reads.
type universeSource interface {
	Watchlist(ctx context.Context) ([]string, error)
	Holdings(ctx context.Context) ([]models.Holding, error)
}

// StoreUniverse adapts the alert store's watchlist and holdings to the
// Universe interface.
type StoreUniverse struct {
	store universeSource
}

// NewStoreUniverse creates a Universe backed by the alert store.
func NewStoreUniverse(store universeSource) *StoreUniverse {
	return &StoreUniverse{store: store}
}

// Watchlist returns the watched symbols.
func (u *StoreUniverse) Watchlist(ctx context.Context) ([]string, error) {
	return u.store.Watchlist(ctx)
}

// Holdings returns the portfolio positions.
func (u *StoreUniverse) Holdings(ctx context.Context) ([]models.Holding, error) {
	return u.store.Holdings(ctx)
}
