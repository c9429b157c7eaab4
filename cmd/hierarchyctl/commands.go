package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/enkday/prizepicks-data-mirror/internal/cache"
	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/odds"

	"github.com/spf13/cobra"
)

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Archive current_day, promote tomorrow and rebuild both buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := application.Rotator.Run(cmd.Context())
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "rotation %s (%s)\n", report.RunID, report.Date)
				for _, step := range report.Steps {
					fmt.Fprintf(out, "  %-20s %-8s %s\n", step.Action, step.Outcome, step.Reason)
				}
			}
			return err
		},
	}
}

func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "rebuild <bucket>",
		Short:     "Rebuild one live bucket from the raw feeds",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.BucketCurrentDay), string(models.BucketTomorrow)},
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := models.ParseBucket(args[0])
			if err != nil {
				return err
			}

			report, err := application.Builder.Rebuild(cmd.Context(), bucket)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, src := range report.Sources {
				status := "ok"
				if src.Err != nil {
					status = src.Err.Error()
				}
				fmt.Fprintf(out, "  source %s: %d records, %d rejected (%s)\n", src.Source, src.Records, src.Rejected, status)
			}
			fmt.Fprintf(out, "%s: %d games, %d teams, %d players, %d props, %d slates\n",
				bucket, report.Games, report.Teams, report.Players, report.Props, report.Slates)
			return nil
		},
	}
}

func sliceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slice [bucket]",
		Short: "Re-derive per-sport indexes from a bucket's entity files",
		Long: `Re-derive the per-sport props indexes, per-game and per-slate files of a bucket.
Without an argument both current_day and tomorrow are sliced. Buckets whose
entity files are missing are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buckets := models.LiveBuckets
			if len(args) == 1 {
				b, err := models.ParseBucket(args[0])
				if err != nil {
					return err
				}
				buckets = []models.Bucket{b}
			}

			out := cmd.OutOrStdout()
			for _, b := range buckets {
				res, err := application.Builder.Reslice(cmd.Context(), b)
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintf(out, "%s: skipped, no inputs\n", b)
					continue
				}
				for _, idx := range res.Indexes {
					fmt.Fprintf(out, "%s/%s: %d games, %d props\n", b, idx.SportSlug, idx.GameCount, idx.PropCount)
				}
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <bucket>",
		Short: "Check that a bucket's games.json and props.json are healthy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := models.ParseBucket(args[0])
			if err != nil {
				return err
			}

			if err := application.Validator.Check(application.Store.BucketDir(bucket)); err != nil {
				return fmt.Errorf("%s: %w", bucket, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: healthy\n", bucket)
			return nil
		},
	}
}

func syncOddsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-odds",
		Short: "Save odds snapshots for the configured sports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if application.Odds == nil {
				return errors.New("ODDS_API_KEY is not set")
			}

			results, err := application.Odds.Sync(cmd.Context())
			printOddsResults(cmd, results)
			return err
		},
	}
}

func printOddsResults(cmd *cobra.Command, results []odds.Result) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: failed: %v\n", r.Sport, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: %d events -> %s\n", r.Sport, r.Events, r.Path)
	}
}

func actionSlicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action-slices",
		Short: "Write the top-ranked props of the today and tomorrow NFL feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := application.Actions.Run()
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

// indexReader reads the sport indexes mirrored into Redis
type indexReader interface {
	GetIndex(ctx context.Context, bucket models.Bucket, sportSlug string) (*models.PropsIndex, error)
	Sports(ctx context.Context, bucket models.Bucket) ([]string, error)
}

func cacheIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-index <bucket> [sport]",
		Short: "Show the sport indexes mirrored into Redis for a bucket",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if application.Cache == nil {
				return errors.New("redis index mirror is not available, set REDIS_ENABLED and check the connection")
			}
			return printCachedIndexes(cmd, application.Cache, args)
		},
	}
}

func printCachedIndexes(cmd *cobra.Command, r indexReader, args []string) error {
	bucket, err := models.ParseBucket(args[0])
	if err != nil {
		return err
	}

	slugs := args[1:]
	if len(slugs) == 0 {
		slugs, err = r.Sports(cmd.Context(), bucket)
		if err != nil {
			return err
		}
		sort.Strings(slugs)
	}

	out := cmd.OutOrStdout()
	if len(slugs) == 0 {
		fmt.Fprintf(out, "%s: no cached indexes\n", bucket)
		return nil
	}
	for _, slug := range slugs {
		idx, err := r.GetIndex(cmd.Context(), bucket, slug)
		if errors.Is(err, cache.ErrCacheMiss) {
			fmt.Fprintf(out, "%s/%s: not cached\n", bucket, slug)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s/%s: %d games, %d props\n", bucket, idx.SportSlug, idx.GameCount, idx.PropCount)
	}
	return nil
}
