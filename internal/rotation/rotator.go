// Package rotation advances the hierarchy by one day: archive the outgoing
// current_day, promote tomorrow, and rebuild from the raw feeds.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/builder"
	"github.com/enkday/prizepicks-data-mirror/internal/classifier"
	"github.com/enkday/prizepicks-data-mirror/internal/metrics"
	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/repository"
	"github.com/enkday/prizepicks-data-mirror/internal/slicer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Rebuilder regenerates buckets from the raw feeds
type Rebuilder interface {
	Rebuild(ctx context.Context, bucket models.Bucket) (*builder.Report, error)
	Reslice(ctx context.Context, bucket models.Bucket) (*slicer.Result, error)
}

// Rotator runs the daily rotation
type Rotator struct {
	store     *repository.Store
	validator *repository.Validator
	rebuilder Rebuilder
	clock     *classifier.Classifier
}

// StepResult records one executed action
type StepResult struct {
	State   State
	Action  Action
	Outcome Outcome
	Reason  string
	Err     error
}

// Report summarizes a rotation run
type Report struct {
	RunID      string
	Date       string
	Steps      []StepResult
	ArchivedTo string
	Promoted   bool
	Recovered  bool
	CurrentDay *builder.Report
	Tomorrow   *builder.Report
	StartedAt  time.Time
	Duration   time.Duration
}

// New creates a rotator. The classifier's clock decides the archive date.
func New(store *repository.Store, validator *repository.Validator, rebuilder Rebuilder, clock *classifier.Classifier) *Rotator {
	return &Rotator{
		store:     store,
		validator: validator,
		rebuilder: rebuilder,
		clock:     clock,
	}
}

// Run executes one full rotation. Missing or invalid buckets resolve through
// the state machine; the returned error is non-nil only when storage itself
// failed, and every step still runs.
func (r *Rotator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Date:      r.clock.Today(),
		StartedAt: time.Now(),
	}

	logger := log.With().Str("run_id", report.RunID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Str("date", report.Date).Msg("Starting rotation")

	if err := r.store.EnsureWritable(); err != nil {
		metrics.RecordRotation("error", 0)
		logger.Error().Err(err).Msg("Hierarchy storage is not writable")
		return report, err
	}
	if err := r.store.CleanStale(); err != nil {
		logger.Warn().Err(err).Msg("Failed to clean stale directories")
	}

	var errs []error
	state, action := Transition(StateIdle, OutcomeDone)
	for state != StateIdle {
		step := r.execute(ctx, logger, state, action, report)
		report.Steps = append(report.Steps, step)
		metrics.RecordRotationStep(step.Action.String(), step.Outcome.String())
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Action, step.Err))
		}

		state, action = Transition(state, step.Outcome)
	}

	report.Duration = time.Since(report.StartedAt)
	if snapshots, err := r.store.ArchiveSnapshots(); err == nil {
		metrics.ArchiveSnapshots.Set(float64(len(snapshots)))
	}

	err := errors.Join(errs...)
	if err != nil {
		metrics.RecordRotation("error", report.Duration.Seconds())
		logger.Error().Err(err).Dur("duration", report.Duration).Msg("Rotation finished with storage errors")
		return report, err
	}

	metrics.RecordRotation("success", report.Duration.Seconds())
	logger.Info().
		Str("archived_to", report.ArchivedTo).
		Bool("promoted", report.Promoted).
		Bool("recovered", report.Recovered).
		Dur("duration", report.Duration).
		Msg("Rotation complete")
	return report, nil
}

func (r *Rotator) execute(ctx context.Context, logger zerolog.Logger, state State, action Action, report *Report) StepResult {
	step := StepResult{State: state, Action: action}

	switch action {
	case ActionArchive:
		step.Outcome, step.Reason, step.Err = r.archive(report)
	case ActionPromote:
		step.Outcome, step.Reason, step.Err = r.promote(ctx, report)
	case ActionRebuildCurrentDay:
		report.Recovered = true
		rep, err := r.rebuilder.Rebuild(ctx, models.BucketCurrentDay)
		step.Outcome, step.Err = rebuildOutcome(err)
		report.CurrentDay = rep
	case ActionRebuildTomorrow:
		rep, err := r.rebuilder.Rebuild(ctx, models.BucketTomorrow)
		step.Outcome, step.Err = rebuildOutcome(err)
		report.Tomorrow = rep
	}

	event := logger.Info()
	switch {
	case step.Err != nil:
		event = logger.Error().Err(step.Err)
	case step.Outcome != OutcomeDone:
		event = logger.Warn()
	}
	event.
		Str("state", state.String()).
		Str("action", action.String()).
		Str("outcome", step.Outcome.String()).
		Str("reason", step.Reason).
		Msg("Rotation step")

	return step
}

// archive retires a healthy current_day into archive/{today}, replacing every prior snapshot
func (r *Rotator) archive(report *Report) (Outcome, string, error) {
	exists, err := r.store.Exists(models.BucketCurrentDay)
	if err != nil {
		return OutcomeFailed, "stat failed", err
	}
	if !exists {
		return OutcomeSkipped, "no current_day", nil
	}

	if err := r.validator.Check(r.store.BucketDir(models.BucketCurrentDay)); err != nil {
		return OutcomeSkipped, fmt.Sprintf("keeping last known current_day: %v", err), nil
	}

	removed, err := r.store.RemoveArchives()
	if err != nil {
		return OutcomeFailed, "archive cleanup failed", err
	}

	dst := r.store.ArchiveDir(report.Date)
	if err := repository.Move(r.store.BucketDir(models.BucketCurrentDay), dst); err != nil {
		return OutcomeFailed, "move failed", err
	}

	report.ArchivedTo = dst
	return OutcomeDone, fmt.Sprintf("replaced %d snapshot(s)", removed), nil
}

// promote moves a healthy tomorrow into current_day and re-derives its indexes
func (r *Rotator) promote(ctx context.Context, report *Report) (Outcome, string, error) {
	exists, err := r.store.Exists(models.BucketTomorrow)
	if err != nil {
		return OutcomeFailed, "stat failed", err
	}
	if !exists {
		return OutcomeFailed, "no tomorrow", nil
	}

	if err := r.validator.Check(r.store.BucketDir(models.BucketTomorrow)); err != nil {
		return OutcomeFailed, err.Error(), nil
	}

	if err := r.store.Replace(r.store.BucketDir(models.BucketTomorrow), r.store.BucketDir(models.BucketCurrentDay)); err != nil {
		return OutcomeFailed, "move failed", err
	}
	report.Promoted = true

	// Entity files moved untouched; index paths still name tomorrow until re-sliced
	if _, err := r.rebuilder.Reslice(ctx, models.BucketCurrentDay); err != nil {
		return OutcomeDone, "promoted, reslice failed", err
	}
	return OutcomeDone, "promoted", nil
}

func rebuildOutcome(err error) (Outcome, error) {
	if err != nil {
		return OutcomeFailed, err
	}
	return OutcomeDone, nil
}
