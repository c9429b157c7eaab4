// Package odds saves raw odds snapshots per sport. Snapshots are a side
// channel and never touch the normalized hierarchy.
package odds

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/enkday/prizepicks-data-mirror/internal/metrics"
	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/repository"

	"github.com/rs/zerolog/log"
)

// Fetcher fetches one sport's odds
type Fetcher interface {
	FetchOdds(ctx context.Context, sport string, markets []string) (*models.OddsSnapshot, error)
}

// Syncer writes {outDir}/{sport}.json for each configured sport
type Syncer struct {
	fetcher Fetcher
	outDir  string
	sports  []string
	markets []string
}

// Result is the outcome of one sport
type Result struct {
	Sport  string
	Path   string
	Events int
	Err    error
}

// NewSyncer creates an odds syncer
func NewSyncer(fetcher Fetcher, outDir string, sports, markets []string) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		outDir:  outDir,
		sports:  sports,
		markets: markets,
	}
}

// SnapshotPath returns the file a sport's snapshot is saved to
func (s *Syncer) SnapshotPath(sport string) string {
	return filepath.Join(s.outDir, sport+".json")
}

// Sync fetches and saves every sport. A failing sport is logged and skipped;
// the error return is reserved for a cancelled context.
func (s *Syncer) Sync(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(s.sports))

	for _, sport := range s.sports {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := Result{Sport: sport}
		snap, err := s.fetcher.FetchOdds(ctx, sport, s.markets)
		if err == nil {
			res.Path = s.SnapshotPath(sport)
			res.Events = snap.EventCount()
			err = repository.WriteJSON(res.Path, snap)
		}

		if err != nil {
			res.Err = fmt.Errorf("failed to sync %s: %w", sport, err)
			res.Path = ""
			metrics.RecordOddsSync(sport, "error")
			log.Warn().Err(err).Str("sport", sport).Msg("Odds sync failed")
		} else {
			metrics.RecordOddsSync(sport, "success")
			log.Info().
				Str("sport", sport).
				Int("events", res.Events).
				Str("path", res.Path).
				Msg("Saved odds snapshot")
		}
		results = append(results, res)
	}

	return results, nil
}
