package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/enkday/prizepicks-data-mirror/internal/cache"
	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `{"props":[
  {"gameId":"g1","sport":"NFL","startTime":"10/16/26 12:00 PM","Team":"Dallas","Opponent":"Houston","player":"Joe Smith","stat":"rushYds","line":55.5,"oddsType":"standard","rank":3},
  {"gameId":"g2","sport":"NFL","startTime":"10/17/26 12:00 PM","Team":"Denver","Opponent":"Miami","player":"Al Green","stat":"passYds","line":260.5,"oddsType":"standard","rank":1}
]}`

func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATA_BASE_URL", dir)
	t.Setenv("DATA_SOURCES", "prizepicks-nfl-today.json")
	t.Cleanup(func() { application = nil })
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSlice_NoInputsSucceeds(t *testing.T) {
	setupTestEnv(t)

	out, err := execute(t, "slice")
	require.NoError(t, err)
	assert.Contains(t, out, "current_day: skipped, no inputs")
	assert.Contains(t, out, "tomorrow: skipped, no inputs")
}

func TestSlice_UnknownBucket(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, "slice", "archive")
	assert.Error(t, err)
}

func TestValidate_MissingBucket(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, "validate", "tomorrow")
	assert.Error(t, err)
}

func TestRebuildThenValidate(t *testing.T) {
	dir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prizepicks-nfl-today.json"), []byte(feed), 0o644))

	_, err := execute(t, "rebuild", "tomorrow")
	require.NoError(t, err)

	// Whether tomorrow holds a prop depends on the wall clock; the files exist regardless
	_, err = os.Stat(filepath.Join(dir, "hierarchy", "tomorrow", "props.json"))
	assert.NoError(t, err)
}

func TestActionSlices(t *testing.T) {
	dir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prizepicks-nfl-today.json"), []byte(feed), 0o644))

	out, err := execute(t, "action-slices")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "prizepicks-nfl-today-top-200.json"))
	assert.NotContains(t, out, "tomorrow-top")
}

func TestSyncOdds_RequiresKey(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ODDS_API_KEY", "")

	_, err := execute(t, "sync-odds")
	assert.Error(t, err)
}

type fakeIndexReader struct {
	indexes map[string]models.PropsIndex
}

func (f *fakeIndexReader) GetIndex(ctx context.Context, bucket models.Bucket, sportSlug string) (*models.PropsIndex, error) {
	idx, ok := f.indexes[string(bucket)+"/"+sportSlug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &idx, nil
}

func (f *fakeIndexReader) Sports(ctx context.Context, bucket models.Bucket) ([]string, error) {
	slugs := make([]string, 0)
	for key, idx := range f.indexes {
		if idx.DayBranch == bucket && key == string(bucket)+"/"+idx.SportSlug {
			slugs = append(slugs, idx.SportSlug)
		}
	}
	return slugs, nil
}

func TestCacheIndex_RequiresRedis(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, "cache-index", "current_day")
	assert.Error(t, err)
}

func TestPrintCachedIndexes(t *testing.T) {
	reader := &fakeIndexReader{indexes: map[string]models.PropsIndex{
		"current_day/nfl": {SportSlug: "nfl", DayBranch: models.BucketCurrentDay, GameCount: 2, PropCount: 7},
		"current_day/nba": {SportSlug: "nba", DayBranch: models.BucketCurrentDay, GameCount: 1, PropCount: 3},
	}}

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetContext(context.Background())
		cmd.SetOut(&out)
		err := printCachedIndexes(cmd, reader, args)
		return out.String(), err
	}

	out, err := run("current_day")
	require.NoError(t, err)
	assert.Equal(t, "current_day/nba: 1 games, 3 props\ncurrent_day/nfl: 2 games, 7 props\n", out)

	out, err = run("current_day", "mlb")
	require.NoError(t, err)
	assert.Equal(t, "current_day/mlb: not cached\n", out)

	out, err = run("tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "tomorrow: no cached indexes\n", out)

	_, err = run("archive")
	assert.Error(t, err)
}
