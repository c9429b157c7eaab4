// Package app wires configuration into the mirror's components. Both the
// worker and hierarchyctl build their object graph here.
package app

import (
	"fmt"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/builder"
	"github.com/enkday/prizepicks-data-mirror/internal/cache"
	"github.com/enkday/prizepicks-data-mirror/internal/classifier"
	"github.com/enkday/prizepicks-data-mirror/internal/client"
	"github.com/enkday/prizepicks-data-mirror/internal/config"
	"github.com/enkday/prizepicks-data-mirror/internal/normalizer"
	"github.com/enkday/prizepicks-data-mirror/internal/odds"
	"github.com/enkday/prizepicks-data-mirror/internal/repository"
	"github.com/enkday/prizepicks-data-mirror/internal/rotation"
	"github.com/enkday/prizepicks-data-mirror/internal/scheduler"
	"github.com/enkday/prizepicks-data-mirror/internal/slicer"

	"github.com/rs/zerolog/log"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Clock     *classifier.Classifier
	Store     *repository.Store
	Validator *repository.Validator
	Slicer    *slicer.Slicer
	Builder   *builder.Builder
	Rotator   *rotation.Rotator
	Actions   *slicer.ActionSlicer

	// Odds is nil when no API key is configured
	Odds *odds.Syncer

	// Cache is nil when Redis is disabled or unreachable
	Cache *cache.IndexPublisher
}

// New builds the component graph. now may be nil to use the wall clock.
func New(cfg *config.Config, now func() time.Time) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load source timezone: %w", err)
	}

	clock := classifier.New(loc, now)
	store := repository.NewStore(cfg.HierarchyDir())
	validator := repository.NewValidator()
	sl := slicer.New(cfg.IndexPathPrefix)

	feeds := client.NewFeedClient(cfg.DataBaseURL, cfg.DataSources, client.HTTPOptions{
		Timeout:    cfg.FeedTimeout,
		MaxRetries: cfg.FeedRetries,
		RateLimit:  cfg.FeedRateLimit,
		Burst:      cfg.FeedBurst,
	})

	norm := normalizer.New(clock, normalizer.Options{
		HashLength: cfg.PlayerIDHashLength,
		Sports:     cfg.Sports,
	})

	a := &App{
		Config:    cfg,
		Clock:     clock,
		Store:     store,
		Validator: validator,
		Slicer:    sl,
		Actions:   slicer.NewActionSlicer(cfg.DataDir, cfg.ActionSliceLimit),
	}

	// A nil *IndexPublisher must not reach the builder as a non-nil interface
	var publisher builder.Publisher
	if cfg.RedisEnabled {
		p, err := cache.NewIndexPublisher(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTLIndex)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without index mirror")
		} else {
			a.Cache = p
			publisher = p
			log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis index mirror connected")
		}
	}

	a.Builder = builder.New(store, feeds, norm, sl, publisher)
	a.Rotator = rotation.New(store, validator, a.Builder, clock)

	if cfg.OddsAPIKey != "" {
		oddsClient := client.NewOddsClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsRegion, cfg.OddsFormat, client.HTTPOptions{
			Timeout:    cfg.OddsTimeout,
			MaxRetries: cfg.FeedRetries,
		})
		a.Odds = odds.NewSyncer(oddsClient, cfg.OddsDir(), cfg.OddsSports, cfg.OddsMarkets)
	}

	return a, nil
}

// Scheduler returns a scheduler driving this app's jobs
func (a *App) Scheduler() *scheduler.Scheduler {
	var syncer scheduler.OddsSyncer
	if a.Odds != nil {
		syncer = a.Odds
	} else if a.Config.OddsSyncCron != "" {
		log.Warn().Msg("ODDS_SYNC_CRON is set but ODDS_API_KEY is empty - odds sync disabled")
	}

	return scheduler.NewScheduler(scheduler.Options{
		RotationCron: a.Config.RotationCron,
		RefreshCron:  a.Config.RefreshCron,
		OddsSyncCron: a.Config.OddsSyncCron,
		Location:     a.Clock.Location(),
		RunOnStart:   a.Config.RunOnStart,
	}, a.Rotator, a.Builder, syncer)
}

// Close releases external connections
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
