// Package builder regenerates one bucket from the raw feeds: fetch, normalize,
// write the entity files and slices into a staging directory, then swap it in.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/client"
	"github.com/enkday/prizepicks-data-mirror/internal/metrics"
	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/normalizer"
	"github.com/enkday/prizepicks-data-mirror/internal/repository"
	"github.com/enkday/prizepicks-data-mirror/internal/slicer"

	"github.com/rs/zerolog/log"
)

// Fetcher supplies raw records for a rebuild
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.RawProp, []client.SourceResult)
}

// Publisher mirrors a bucket's sport indexes somewhere outside the hierarchy
type Publisher interface {
	PublishBucket(ctx context.Context, bucket models.Bucket, indexes []models.PropsIndex) error
}

// Builder rebuilds and re-slices buckets
type Builder struct {
	store      *repository.Store
	fetcher    Fetcher
	normalizer *normalizer.Normalizer
	slicer     *slicer.Slicer
	publisher  Publisher
}

// Report summarizes one rebuild
type Report struct {
	Bucket   models.Bucket
	Sources  []client.SourceResult
	Stats    normalizer.Stats
	Games    int
	Teams    int
	Players  int
	Props    int
	Slates   int
	Indexes  []models.PropsIndex
	Duration time.Duration
}

// Empty reports whether the rebuilt bucket holds no games and no props
func (r *Report) Empty() bool {
	return r.Games == 0 && r.Props == 0
}

// New creates a builder. publisher may be nil.
func New(store *repository.Store, fetcher Fetcher, n *normalizer.Normalizer, s *slicer.Slicer, publisher Publisher) *Builder {
	return &Builder{
		store:      store,
		fetcher:    fetcher,
		normalizer: n,
		slicer:     s,
		publisher:  publisher,
	}
}

// Rebuild regenerates a live bucket from the raw feeds. The previous bucket
// stays visible until the fully written replacement is swapped in. An empty
// feed produces an empty, well-formed bucket.
func (b *Builder) Rebuild(ctx context.Context, bucket models.Bucket) (*Report, error) {
	if !bucket.IsLive() {
		return nil, fmt.Errorf("cannot rebuild bucket %s", bucket)
	}
	start := time.Now()
	logger := log.Ctx(ctx).With().Str("bucket", bucket.String()).Logger()

	records, sources := b.fetcher.FetchAll(ctx)
	rejected := 0
	for _, src := range sources {
		rejected += src.Rejected
		if src.Err != nil {
			metrics.RecordSourceFailure(src.Source)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rebuild of %s cancelled: %w", bucket, err)
	}

	res := b.normalizer.Normalize(records)
	set := res.Bucket(bucket)

	metrics.RecordSkipped("malformed", rejected)
	metrics.RecordSkipped("other_sport", res.Stats.OtherSport)
	metrics.RecordSkipped("non_standard", res.Stats.NonStandard)
	metrics.RecordSkipped("duplicate", res.Stats.Duplicates)
	metrics.RecordSkipped("parse_failure", res.Stats.ParseFailures)

	stage, err := b.store.Stage(bucket)
	if err != nil {
		metrics.RecordRebuild(bucket.String(), "error", time.Since(start).Seconds())
		return nil, err
	}

	sliced, err := b.writeStage(stage, set)
	if err != nil {
		b.store.Discard(stage)
		metrics.RecordRebuild(bucket.String(), "error", time.Since(start).Seconds())
		return nil, err
	}

	if err := b.store.Commit(stage, bucket); err != nil {
		b.store.Discard(stage)
		metrics.RecordRebuild(bucket.String(), "error", time.Since(start).Seconds())
		return nil, err
	}

	b.publish(ctx, bucket, sliced.Indexes)

	report := &Report{
		Bucket:   bucket,
		Sources:  sources,
		Stats:    res.Stats,
		Games:    len(set.Games),
		Teams:    len(set.Teams),
		Players:  len(set.Players),
		Props:    len(set.Props),
		Slates:   len(set.Slates),
		Indexes:  sliced.Indexes,
		Duration: time.Since(start),
	}

	metrics.UpdateBucketStats(bucket.String(), report.Games, report.Teams, report.Players, report.Props, report.Slates)
	metrics.RecordRebuild(bucket.String(), "success", report.Duration.Seconds())

	event := logger.Info()
	if report.Empty() {
		event = logger.Warn()
	}
	event.
		Int("records", res.Stats.Input).
		Int("games", report.Games).
		Int("players", report.Players).
		Int("props", report.Props).
		Int("slates", report.Slates).
		Int("duplicates", res.Stats.Duplicates).
		Int("parse_failures", res.Stats.ParseFailures).
		Dur("duration", report.Duration).
		Msg("Bucket rebuilt")

	return report, nil
}

func (b *Builder) writeStage(stage string, set *models.BucketSet) (*slicer.Result, error) {
	if err := repository.WriteBucketSet(stage, set); err != nil {
		return nil, fmt.Errorf("failed to write %s entities: %w", set.Bucket, err)
	}
	sliced, err := b.slicer.SliceBucket(stage, set.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to slice %s: %w", set.Bucket, err)
	}
	return sliced, nil
}

// Reslice re-derives the sport indexes of a live bucket in place. A missing
// bucket is a no-op.
func (b *Builder) Reslice(ctx context.Context, bucket models.Bucket) (*slicer.Result, error) {
	if !bucket.IsLive() {
		return nil, fmt.Errorf("cannot slice bucket %s", bucket)
	}

	res, err := b.slicer.SliceBucket(b.store.BucketDir(bucket), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to slice %s: %w", bucket, err)
	}
	if res.Skipped {
		log.Ctx(ctx).Info().Str("bucket", bucket.String()).Msg("No bucket inputs, nothing to slice")
		return res, nil
	}

	b.publish(ctx, bucket, res.Indexes)
	return res, nil
}

func (b *Builder) publish(ctx context.Context, bucket models.Bucket, indexes []models.PropsIndex) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.PublishBucket(ctx, bucket, indexes); err != nil {
		metrics.RecordError("cache", "publish")
		log.Ctx(ctx).Warn().Err(err).Str("bucket", bucket.String()).Msg("Failed to publish indexes")
	}
}
