// Package theoddsapi implements the feed client for The Odds API
// (the-odds-api.com). The free tier allows 500 credits per month, so the
// client carries a daily request budget and tracks the remaining credits the
// provider reports on every response.
package theoddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/feed/httpx"
	"github.com/cypherlabdev/sports-trading-agent/internal/metrics"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

const providerName = "theoddsapi"

// ErrBudgetExhausted is returned when the daily request budget is spent.
// The poller skips the cycle and retries after the midnight UTC reset.
var ErrBudgetExhausted = errors.New("daily request budget exhausted")

// Budget enforces a daily request cap that resets at midnight UTC.
type Budget struct {
	mu       sync.Mutex
	limit    int
	used     int
	resetDay time.Time
	now      func() time.Time
}

// NewBudget creates a budget allowing limit requests per UTC day.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit, now: time.Now}
}

// Take consumes one request from the budget, resetting the counter when the
// UTC day has rolled over.
func (b *Budget) Take() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	day := b.now().UTC().Truncate(24 * time.Hour)
	if day.After(b.resetDay) {
		b.resetDay = day
		b.used = 0
	}

	if b.used >= b.limit {
		return ErrBudgetExhausted
	}
	b.used++
	return nil
}

// Remaining reports how many requests are left today.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.now().UTC().Truncate(24 * time.Hour).After(b.resetDay) {
		return b.limit
	}
	return b.limit - b.used
}

// Config holds The Odds API client configuration
type Config struct {
	BaseURL     string // e.g., "https://api.the-odds-api.com"
	APIKey      string
	Regions     string // e.g., "eu,uk"
	Markets     string // e.g., "h2h,h2h_lay"
	DailyBudget int
}

// Client fetches Back/Lay odds from The Odds API.
type Client struct {
	config Config
	http   *httpx.Client
	budget *Budget
	logger zerolog.Logger
}

// NewClient creates a new The Odds API client
func NewClient(config Config, httpClient *httpx.Client, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.the-odds-api.com"
	}
	if config.DailyBudget <= 0 {
		config.DailyBudget = 16
	}

	return &Client{
		config: config,
		http:   httpClient,
		budget: NewBudget(config.DailyBudget),
		logger: logger.With().Str("component", "theoddsapi_client").Logger(),
	}
}

// Name identifies the provider in metrics and quote sources.
func (c *Client) Name() string { return providerName }

// Budget exposes the daily request budget.
func (c *Client) Budget() *Budget { return c.budget }

// Wire format for /v4/sports/{sport}/odds.
type oddsEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []market  `json:"markets"`
}

type market struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// FetchOdds retrieves decimal odds for one sport and normalizes them into
// quotes. Back (h2h) and lay (h2h_lay) prices for the same selection at the
// same bookmaker are merged into a single quote.
func (c *Client) FetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, []models.Event, error) {
	if err := c.budget.Take(); err != nil {
		return nil, nil, err
	}

	q := url.Values{}
	q.Set("apiKey", c.config.APIKey)
	q.Set("regions", c.config.Regions)
	q.Set("markets", c.config.Markets)
	q.Set("oddsFormat", "decimal")

	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds?%s", c.config.BaseURL, sport, q.Encode())

	resp, err := c.http.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch odds for %s: %w", sport, err)
	}
	defer resp.Body.Close()

	c.observeCredits(resp)

	var events []oddsEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, nil, fmt.Errorf("failed to decode odds response: %w", err)
	}

	quotes, fixtures := c.normalize(events, sport)

	c.logger.Debug().
		Str("sport", sport).
		Int("events", len(fixtures)).
		Int("quotes", len(quotes)).
		Int("budget_remaining", c.budget.Remaining()).
		Msg("fetched odds")

	return quotes, fixtures, nil
}

// observeCredits exports the provider's remaining monthly credits, reported
// on the x-requests-remaining response header.
func (c *Client) observeCredits(resp *http.Response) {
	remaining := resp.Header.Get("x-requests-remaining")
	if remaining == "" {
		return
	}
	if v, err := strconv.ParseFloat(remaining, 64); err == nil {
		metrics.ProviderCredits.WithLabelValues(providerName).Set(v)
	}
}

func (c *Client) normalize(events []oddsEvent, sport string) ([]models.OddsQuote, []models.Event) {
	now := time.Now().UTC()
	quotes := make([]models.OddsQuote, 0, len(events)*8)
	fixtures := make([]models.Event, 0, len(events))

	for _, ev := range events {
		status := models.EventUpcoming
		if !ev.CommenceTime.After(now) {
			status = models.EventLive
		}
		fixtures = append(fixtures, models.Event{
			ID:           ev.ID,
			Sport:        sport,
			Competition:  ev.SportTitle,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			Status:       status,
		})

		for _, bk := range ev.Bookmakers {
			// selection -> back/lay prices for this bookmaker
			type prices struct{ back, lay decimal.Decimal }
			merged := make(map[string]*prices)

			for _, mkt := range bk.Markets {
				for _, out := range mkt.Outcomes {
					p, ok := merged[out.Name]
					if !ok {
						p = &prices{}
						merged[out.Name] = p
					}
					switch mkt.Key {
					case "h2h":
						p.back = out.Price
					case "h2h_lay":
						p.lay = out.Price
					}
				}
			}

			for selection, p := range merged {
				quotes = append(quotes, models.OddsQuote{
					ID:          uuid.New(),
					EventID:     ev.ID,
					EventName:   ev.HomeTeam + " vs " + ev.AwayTeam,
					Sport:       sport,
					Competition: ev.SportTitle,
					Market:      "h2h",
					Selection:   selection,
					Bookmaker:   bk.Key,
					BackPrice:   p.back,
					LayPrice:    p.lay,
					Source:      providerName,
					Timestamp:   bk.LastUpdate,
					ReceivedAt:  now,
				})
			}
		}
	}

	return quotes, fixtures
}
