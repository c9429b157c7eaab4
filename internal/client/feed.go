package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultFeedBaseURL is the public mirror of the scraper's raw feeds
const DefaultFeedBaseURL = "https://raw.githubusercontent.com/ENKDAY/prizepicks-scraper/main/data"

// DefaultFeedSources are the raw feed files read on every rebuild
var DefaultFeedSources = []string{
	"prizepicks-nfl-today.json",
	"prizepicks-nfl-tomorrow.json",
	"prizepicks-nfl.json",
}

// SourceResult reports the acquisition outcome of one source.
// A failed source contributes zero records.
type SourceResult struct {
	Source   string
	Records  int
	Rejected int
	Err      error
}

// FeedClient loads raw prop records from HTTP or local file sources
type FeedClient struct {
	baseURL string
	sources []string
	getter  *getter
}

// NewFeedClient creates a feed client. baseURL may be an http(s) URL or a local directory.
func NewFeedClient(baseURL string, sources []string, opts HTTPOptions) *FeedClient {
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	if len(sources) == 0 {
		sources = DefaultFeedSources
	}
	return &FeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		sources: sources,
		getter:  newGetter(opts),
	}
}

// Sources returns the configured source names
func (c *FeedClient) Sources() []string {
	return c.sources
}

// FetchAll loads every source in parallel and concatenates the records in
// source order. Source failures are isolated and reported, never returned.
func (c *FeedClient) FetchAll(ctx context.Context) ([]models.RawProp, []SourceResult) {
	results := make([]SourceResult, len(c.sources))
	records := make([][]models.RawProp, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range c.sources {
		g.Go(func() error {
			recs, rejected, err := c.fetchSource(gctx, source)
			results[i] = SourceResult{Source: source, Records: len(recs), Rejected: rejected, Err: err}
			if err != nil {
				log.Warn().
					Err(err).
					Str("source", source).
					Msg("Feed source failed, treating as empty")
				return nil
			}
			records[i] = recs
			return nil
		})
	}
	// Workers never return errors; failures live in results
	_ = g.Wait()

	total := 0
	for _, recs := range records {
		total += len(recs)
	}
	all := make([]models.RawProp, 0, total)
	for _, recs := range records {
		all = append(all, recs...)
	}

	return all, results
}

func (c *FeedClient) fetchSource(ctx context.Context, source string) ([]models.RawProp, int, error) {
	var (
		data []byte
		err  error
	)
	if c.isRemote() {
		data, err = c.getter.get(ctx, source, c.baseURL+"/"+source, nil)
	} else {
		data, err = os.ReadFile(filepath.Join(c.baseURL, source))
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load %s: %w", source, err)
	}

	return DecodeFeed(data)
}

func (c *FeedClient) isRemote() bool {
	return strings.HasPrefix(c.baseURL, "http://") || strings.HasPrefix(c.baseURL, "https://")
}

// DecodeFeed parses a {"props": [...]} payload. Each record is decoded on its
// own so one malformed record is rejected without losing the rest.
func DecodeFeed(data []byte) ([]models.RawProp, int, error) {
	var payload struct {
		Props []json.RawMessage `json:"props"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, 0, fmt.Errorf("failed to decode feed: %w", err)
	}

	records := make([]models.RawProp, 0, len(payload.Props))
	rejected := 0
	for i, raw := range payload.Props {
		var input models.RawPropInput
		if err := json.Unmarshal(raw, &input); err != nil {
			rejected++
			log.Debug().Err(err).Int("index", i).Msg("Rejecting malformed feed record")
			continue
		}
		rec, err := input.ToRawProp()
		if err != nil {
			rejected++
			log.Debug().Err(err).Int("index", i).Msg("Rejecting incomplete feed record")
			continue
		}
		records = append(records, *rec)
	}

	return records, rejected, nil
}
