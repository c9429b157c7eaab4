package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/classifier"
	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, loc) }
	return New(classifier.New(loc, now), Options{})
}

func rawProp(gameID, player, team, opp, stat, startTime string, line float64) models.RawProp {
	return models.RawProp{
		GameID:    gameID,
		Sport:     "NFL",
		StartTime: startTime,
		Team:      team,
		Opponent:  opp,
		Player:    player,
		Stat:      stat,
		Line:      line,
		OddsType:  "standard",
	}
}

func fixtureRecords() []models.RawProp {
	return []models.RawProp{
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5),
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "recYds", "10/16/26 12:00 PM", 20.5),
		rawProp("g1", "Sam Lee", "Houston", "Dallas", "passYds", "10/16/26 12:00 PM", 240.5),
		rawProp("g2", "Al Green", "Denver", "Miami", "passYds", "10/16/26 7:15 PM", 260.5),
		rawProp("g3", "Bo Hill", "Chicago", "Detroit", "rushYds", "10/17/26 3:25 PM CST", 70.5),
		rawProp("g9", "Old Timer", "Seattle", "Tampa Bay", "rushYds", "10/14/26 3:25 PM", 10.5),
	}
}

func TestNormalize_JoeSmithScenario(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize([]models.RawProp{
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5),
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "recYds", "10/16/26 12:00 PM", 20.5),
	})

	require.Len(t, res.Players, 1)
	require.Len(t, res.Games, 1)
	require.Len(t, res.Props, 2)
	for id := range res.Players {
		assert.Regexp(t, `^dallas-joe-smith-[0-9a-f]{8}$`, id)
	}
	assert.NotEqual(t, res.Props[0].PropID, res.Props[1].PropID)
}

func TestNormalize_DedupCollapsesIdenticalKey(t *testing.T) {
	n := newTestNormalizer(t)
	first := rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5)
	second := first
	second.Line = 60.5

	res := n.Normalize([]models.RawProp{first, second})

	require.Len(t, res.Props, 1)
	assert.Equal(t, 55.5, res.Props[0].Line, "dedup keeps the first record of a key")
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestNormalize_PropIDCollisionLastWriteWins(t *testing.T) {
	n := newTestNormalizer(t)
	// Same (game, player, stat) but different startTime strings survive dedup
	first := rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5)
	second := rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM CST", 61.5)

	res := n.Normalize([]models.RawProp{first, second})

	require.Len(t, res.Props, 1)
	assert.Equal(t, 61.5, res.Props[0].Line)
	assert.Equal(t, 1, res.Stats.Overwritten)
	require.Len(t, res.Slates, 1)
	assert.Equal(t, 1, res.Slates[0].TotalProps)
}

func TestNormalize_FiltersNonStandardAndBadTimes(t *testing.T) {
	n := newTestNormalizer(t)
	goblin := rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 40.5)
	goblin.OddsType = "goblin"
	upper := rawProp("g1", "Joe Smith", "Dallas", "Houston", "recYds", "10/16/26 12:00 PM", 20.5)
	upper.OddsType = "Standard"
	broken := rawProp("g2", "Al Green", "Denver", "Miami", "passYds", "not a time", 260.5)

	res := n.Normalize([]models.RawProp{goblin, upper, broken})

	assert.Equal(t, 1, res.Stats.NonStandard)
	assert.Equal(t, 1, res.Stats.ParseFailures)
	require.Len(t, res.Props, 1)
	assert.Equal(t, "recYds", res.Props[0].Stat)
	assert.Equal(t, models.OddsTypeStandard, res.Props[0].OddsType)
}

func TestNormalize_BucketsAndSlates(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize(fixtureRecords())

	assert.Equal(t, 1, res.Stats.OutOfWindow, "game two days ago is excluded")
	assert.NotContains(t, res.Games, "g9")

	assert.Equal(t, models.BucketCurrentDay, res.Games["g1"].DayBranch)
	assert.Equal(t, models.SlateEarly, res.Games["g1"].Slate)
	assert.Equal(t, models.SlateLate, res.Games["g2"].Slate)
	assert.Equal(t, models.BucketTomorrow, res.Games["g3"].DayBranch)
	assert.Equal(t, models.SlateLate, res.Games["g3"].Slate)

	current := res.Bucket(models.BucketCurrentDay)
	require.Len(t, current.Slates, 2)
	assert.Equal(t, models.SlateEarly, current.Slates[0].Slate)
	assert.Equal(t, []string{"g1"}, current.Slates[0].GameIDs)
	assert.Equal(t, 3, current.Slates[0].TotalProps)
	assert.Equal(t, models.SlateLate, current.Slates[1].Slate)
	assert.Equal(t, 1, current.Slates[1].TotalProps)
}

func TestNormalize_FirstSeenGameMetadataWins(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize([]models.RawProp{
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5),
		rawProp("g1", "Sam Lee", "Houston", "Dallas", "passYds", "10/16/26 4:00 PM", 240.5),
	})

	game := res.Games["g1"]
	require.NotNil(t, game)
	assert.Equal(t, "10/16/26 12:00 PM", game.StartTime)
	assert.Equal(t, []string{"Dallas", "Houston"}, game.Teams)
	assert.Equal(t, models.SlateEarly, game.Slate)
}

func TestNormalize_TeamUpsertKeepsFirstName(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize([]models.RawProp{
		rawProp("g1", "Joe Smith", "Dallas", "Houston", "rushYds", "10/16/26 12:00 PM", 55.5),
		rawProp("g2", "Ty Fox", "dallas", "Miami", "rushYds", "10/16/26 1:00 PM", 30.5),
	})

	require.Contains(t, res.Teams, "dallas")
	assert.Equal(t, "Dallas", res.Teams["dallas"].TeamName)
}

func TestResult_BucketReferentialCompleteness(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize(fixtureRecords())

	for _, b := range models.LiveBuckets {
		set := res.Bucket(b)

		games := make(map[string]bool)
		for _, g := range set.Games {
			games[g.GameID] = true
		}
		teams := make(map[string]bool)
		for _, tm := range set.Teams {
			teams[tm.TeamCode] = true
		}
		players := make(map[string]bool)
		for _, p := range set.Players {
			players[p.PlayerID] = true
			assert.True(t, teams[p.TeamCode], "player team %s missing in %s", p.TeamCode, b)
		}

		for _, p := range set.Props {
			assert.Equal(t, b, p.DayBranch)
			assert.True(t, games[p.GameID], "game %s missing in %s", p.GameID, b)
			assert.True(t, players[p.PlayerID], "player %s missing in %s", p.PlayerID, b)
			assert.True(t, teams[p.TeamCode], "team %s missing in %s", p.TeamCode, b)
			assert.True(t, teams[p.OpponentCode], "opponent %s missing in %s", p.OpponentCode, b)
		}
	}
}

func TestResult_BucketNoCrossBucketLeakage(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize(fixtureRecords())

	tomorrow := res.Bucket(models.BucketTomorrow)
	require.Len(t, tomorrow.Games, 1)

	codes := make([]string, 0)
	for _, tm := range tomorrow.Teams {
		codes = append(codes, tm.TeamCode)
	}
	assert.ElementsMatch(t, []string{"chicago", "detroit"}, codes)
	require.Len(t, tomorrow.Players, 1)
	assert.Equal(t, "Bo Hill", tomorrow.Players[0].PlayerName)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer(t)

	for _, b := range models.LiveBuckets {
		first := n.Normalize(fixtureRecords()).Bucket(b)
		second := n.Normalize(fixtureRecords()).Bucket(b)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("bucket %s differs between runs (-first +second):\n%s", b, diff)
		}

		a, err := json.Marshal(first)
		require.NoError(t, err)
		c, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(c))
	}
}

func TestNormalize_EmptyInputIsWellFormed(t *testing.T) {
	n := newTestNormalizer(t)
	res := n.Normalize(nil)

	set := res.Bucket(models.BucketCurrentDay)
	assert.True(t, set.IsEmpty())

	data, err := json.Marshal(set.Props)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestNormalize_SportFilter(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, loc) }
	n := New(classifier.New(loc, now), Options{Sports: []string{"nfl"}})

	nba := rawProp("b1", "Big Man", "Boston", "Denver", "points", "10/16/26 6:30 PM", 22.5)
	nba.Sport = "NBA"

	res := n.Normalize(append(fixtureRecords(), nba))
	assert.Equal(t, 1, res.Stats.OtherSport)
	assert.NotContains(t, res.Games, "b1")
	assert.Contains(t, res.Games, "g1")
}
