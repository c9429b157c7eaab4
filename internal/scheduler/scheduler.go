package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/builder"
	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/odds"
	"github.com/enkday/prizepicks-data-mirror/internal/rotation"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Rotator runs the daily rotation
type Rotator interface {
	Run(ctx context.Context) (*rotation.Report, error)
}

// Refresher rebuilds a single bucket
type Refresher interface {
	Rebuild(ctx context.Context, bucket models.Bucket) (*builder.Report, error)
}

// OddsSyncer saves odds snapshots
type OddsSyncer interface {
	Sync(ctx context.Context) ([]odds.Result, error)
}

// Options configures the job schedules. Empty refresh and odds specs disable those jobs.
type Options struct {
	RotationCron string
	RefreshCron  string
	OddsSyncCron string
	Location     *time.Location
	RunOnStart   bool
}

// Scheduler runs rotation, refresh and odds sync on cron schedules.
// Jobs never overlap: each job skips while its previous run is still going,
// and all jobs share one lock so a refresh cannot race a rotation.
type Scheduler struct {
	opts      Options
	rotator   Rotator
	refresher Refresher
	odds      OddsSyncer

	cron   *cron.Cron
	mu     sync.Mutex
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance. refresher and syncer may be nil.
func NewScheduler(opts Options, rotator Rotator, refresher Refresher, syncer OddsSyncer) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	logger := cronLogger{}
	return &Scheduler{
		opts:      opts,
		rotator:   rotator,
		refresher: refresher,
		odds:      syncer,
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	jobs := []struct {
		name    string
		spec    string
		enabled bool
		run     func(context.Context) error
	}{
		{"rotation", s.opts.RotationCron, true, s.RunRotation},
		{"refresh", s.opts.RefreshCron, s.refresher != nil, s.RunRefresh},
		{"odds_sync", s.opts.OddsSyncCron, s.odds != nil, s.RunOddsSync},
	}

	for _, job := range jobs {
		if job.spec == "" || !job.enabled {
			continue
		}

		run := job.run
		name := job.name
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := run(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
			}
		}); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}

		log.Info().
			Str("job", name).
			Str("schedule", job.spec).
			Str("timezone", s.opts.Location.String()).
			Msg("Job scheduled")
	}

	s.cron.Start()

	if s.opts.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.RunRotation(ctx); err != nil {
				log.Error().Err(err).Msg("Initial rotation failed")
			}
		}()
	}

	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	<-done.Done()
	s.wg.Wait()

	log.Info().Msg("Scheduler stopped")
}

// RunRotation runs one rotation under the job lock
func (s *Scheduler) RunRotation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.rotator.Run(ctx)
	return err
}

// RunRefresh rebuilds tomorrow under the job lock
func (s *Scheduler) RunRefresh(ctx context.Context) error {
	if s.refresher == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.refresher.Rebuild(ctx, models.BucketTomorrow)
	return err
}

// RunOddsSync saves odds snapshots under the job lock
func (s *Scheduler) RunOddsSync(ctx context.Context) error {
	if s.odds == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.odds.Sync(ctx)
	return err
}

// cronLogger routes cron's internal logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
