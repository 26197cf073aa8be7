// Package apifutebol implements the fixture client for API-Futebol
// (api.api-futebol.com.br). It carries no odds; the agent uses it to know
// which Brazilian fixtures are live or scheduled so odds polling can focus
// on them.
package apifutebol

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/feed/httpx"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

const providerName = "apifutebol"

// Config holds API-Futebol client configuration
type Config struct {
	BaseURL string // e.g., "https://api.api-futebol.com.br"
	APIKey  string // Bearer token
}

// Client fetches fixtures from API-Futebol.
type Client struct {
	config Config
	http   *httpx.Client
	logger zerolog.Logger
}

// NewClient creates a new API-Futebol client
func NewClient(config Config, httpClient *httpx.Client, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.api-futebol.com.br"
	}

	return &Client{
		config: config,
		http:   httpClient,
		logger: logger.With().Str("component", "apifutebol_client").Logger(),
	}
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Wire format shared by /v1/ao-vivo and /v1/partidas/{date}.
type partida struct {
	PartidaID  int    `json:"partida_id"`
	Campeonato struct {
		Nome string `json:"nome"`
	} `json:"campeonato"`
	TimeMandante struct {
		NomePopular string `json:"nome_popular"`
	} `json:"time_mandante"`
	TimeVisitante struct {
		NomePopular string `json:"nome_popular"`
	} `json:"time_visitante"`
	Status            string `json:"status"`
	DataRealizacaoISO string `json:"data_realizacao_iso"`
}

// LiveMatches returns the fixtures currently in play.
func (c *Client) LiveMatches(ctx context.Context) ([]models.Event, error) {
	return c.fetch(ctx, c.config.BaseURL+"/v1/ao-vivo")
}

// MatchesByDate returns the fixtures scheduled for the given day.
func (c *Client) MatchesByDate(ctx context.Context, day time.Time) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/v1/partidas/%s", c.config.BaseURL, day.Format("2006-01-02"))
	return c.fetch(ctx, endpoint)
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]models.Event, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}

	resp, err := c.http.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}
	defer resp.Body.Close()

	var matches []partida
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures response: %w", err)
	}

	events := make([]models.Event, 0, len(matches))
	for _, m := range matches {
		events = append(events, models.Event{
			ID:           fmt.Sprintf("%s-%d", providerName, m.PartidaID),
			Sport:        "soccer",
			Competition:  m.Campeonato.Nome,
			HomeTeam:     m.TimeMandante.NomePopular,
			AwayTeam:     m.TimeVisitante.NomePopular,
			CommenceTime: parseCommence(m.DataRealizacaoISO),
			Status:       mapStatus(m.Status),
		})
	}

	c.logger.Debug().Int("fixtures", len(events)).Msg("fetched fixtures")
	return events, nil
}

func parseCommence(iso string) time.Time {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapStatus(status string) models.EventStatus {
	switch status {
	case "andamento", "intervalo":
		return models.EventLive
	case "finalizado", "encerrado":
		return models.EventFinished
	default:
		return models.EventUpcoming
	}
}
