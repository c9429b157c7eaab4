package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/models"
)

// ErrNoAPIKey is returned when the odds client has no API key configured
var ErrNoAPIKey = errors.New("odds API key not set")

const (
	DefaultOddsBaseURL = "https://api.the-odds-api.com"
	DefaultOddsRegion  = "us"
	DefaultOddsFormat  = "american"
)

var (
	DefaultOddsSports  = []string{"basketball_nba", "americanfootball_nfl", "americanfootball_ncaaf"}
	DefaultOddsMarkets = []string{
		"player_points",
		"player_rebounds",
		"player_assists",
		"player_pass_yds",
		"player_rush_yds",
		"player_rec_yds",
	}
)

// OddsClient is a client for The Odds API v4
type OddsClient struct {
	baseURL    string
	apiKey     string
	region     string
	oddsFormat string
	getter     *getter
	now        func() time.Time
}

// NewOddsClient creates an odds client
func NewOddsClient(baseURL, apiKey, region, oddsFormat string, opts HTTPOptions) *OddsClient {
	if baseURL == "" {
		baseURL = DefaultOddsBaseURL
	}
	if region == "" {
		region = DefaultOddsRegion
	}
	if oddsFormat == "" {
		oddsFormat = DefaultOddsFormat
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	return &OddsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		region:     region,
		oddsFormat: oddsFormat,
		getter:     newGetter(opts),
		now:        time.Now,
	}
}

// FetchOdds fetches the odds of one sport for the given markets
func (c *OddsClient) FetchOdds(ctx context.Context, sport string, markets []string) (*models.OddsSnapshot, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if len(markets) == 0 {
		markets = DefaultOddsMarkets
	}

	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds/", c.baseURL, url.PathEscape(sport))
	params := map[string]string{
		"apiKey":     c.apiKey,
		"regions":    c.region,
		"markets":    strings.Join(markets, ","),
		"oddsFormat": c.oddsFormat,
	}

	body, err := c.getter.get(ctx, "odds:"+sport, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds for %s: %w", sport, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("odds response for %s is not valid JSON", sport)
	}

	return &models.OddsSnapshot{
		FetchedAt: c.now().Unix(),
		Sport:     sport,
		Markets:   append([]string(nil), markets...),
		Region:    c.region,
		Odds:      json.RawMessage(body),
	}, nil
}
