// Package normalizer resolves flat raw prop records into deduplicated
// Game, Team, Player, Prop and Slate entities partitioned by day bucket.
package normalizer

import (
	"strings"

	"github.com/enkday/prizepicks-data-mirror/internal/classifier"
	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/rs/zerolog/log"
)

// Options tunes id derivation and the admitted sports
type Options struct {
	HashLength int
	// Sports restricts normalization to these sports, compared case-insensitively. Empty admits all.
	Sports []string
}

// Normalizer turns raw records into entities using a day classifier
type Normalizer struct {
	classifier *classifier.Classifier
	hashLength int
	sports     map[string]struct{}
}

// Stats counts what happened to the input records of one run
type Stats struct {
	Input         int
	OtherSport    int
	NonStandard   int
	Duplicates    int
	ParseFailures int
	OutOfWindow   int
	Overwritten   int
	Emitted       int
}

// Result holds the entities of both live buckets for one run
type Result struct {
	Games   map[string]*models.Game
	Teams   map[string]*models.Team
	Players map[string]*models.Player
	Props   []models.Prop
	Slates  []models.Slate
	Stats   Stats
}

type slateKey struct {
	bucket models.Bucket
	slate  models.SlateLabel
}

// New creates a normalizer
func New(c *classifier.Classifier, opts Options) *Normalizer {
	if opts.HashLength <= 0 {
		opts.HashLength = DefaultHashLength
	}
	n := &Normalizer{classifier: c, hashLength: opts.HashLength}
	if len(opts.Sports) > 0 {
		n.sports = make(map[string]struct{}, len(opts.Sports))
		for _, sport := range opts.Sports {
			n.sports[strings.ToLower(strings.TrimSpace(sport))] = struct{}{}
		}
	}
	return n
}

// Admit keeps standard-odds records and drops later duplicates of the
// (player, stat, startTime, team, opponent) key. Input order is preserved.
func Admit(records []models.RawProp) (admitted []models.RawProp, nonStandard, duplicates int) {
	admitted = make([]models.RawProp, 0, len(records))
	seen := make(map[models.DedupKey]struct{}, len(records))

	for i := range records {
		r := records[i]
		if !r.IsStandard() {
			nonStandard++
			continue
		}
		key := r.DedupKey()
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		admitted = append(admitted, r)
	}

	return admitted, nonStandard, duplicates
}

// Normalize processes records in input order. A malformed record is skipped,
// never fatal; no surviving records yields an empty, well-formed result.
func (n *Normalizer) Normalize(records []models.RawProp) *Result {
	res := &Result{
		Games:   make(map[string]*models.Game),
		Teams:   make(map[string]*models.Team),
		Players: make(map[string]*models.Player),
		Props:   make([]models.Prop, 0),
		Slates:  make([]models.Slate, 0),
	}
	res.Stats.Input = len(records)

	if n.sports != nil {
		kept := make([]models.RawProp, 0, len(records))
		for _, r := range records {
			if _, ok := n.sports[strings.ToLower(strings.TrimSpace(r.Sport))]; !ok {
				res.Stats.OtherSport++
				continue
			}
			kept = append(kept, r)
		}
		records = kept
	}

	admitted, nonStandard, duplicates := Admit(records)
	res.Stats.NonStandard = nonStandard
	res.Stats.Duplicates = duplicates

	// One clock reading per run so every record is classified against the same day
	now := n.classifier.Now()
	loc := n.classifier.Location()

	slates := make(map[slateKey]*models.Slate)
	slateOrder := make([]slateKey, 0)
	propIndex := make(map[string]int)

	for i := range admitted {
		r := &admitted[i]

		ts, err := n.classifier.Parse(r.StartTime)
		if err != nil {
			res.Stats.ParseFailures++
			log.Warn().
				Err(err).
				Str("game_id", r.GameID).
				Str("player", r.Player).
				Msg("Skipping record with unparseable start time")
			continue
		}

		bucket := classifier.Classify(ts.In(loc), now)
		if bucket == models.BucketNone {
			res.Stats.OutOfWindow++
			continue
		}

		game, ok := res.Games[r.GameID]
		if !ok {
			game = &models.Game{
				GameID:    r.GameID,
				Sport:     r.Sport,
				StartTime: r.StartTime,
				Teams:     []string{r.Team, r.Opponent},
				Slate:     classifier.SlateFor(ts),
				DayBranch: bucket,
			}
			res.Games[r.GameID] = game

			key := slateKey{bucket: game.DayBranch, slate: game.Slate}
			slate, exists := slates[key]
			if !exists {
				slate = &models.Slate{DayBranch: key.bucket, Slate: key.slate, GameIDs: make([]string, 0)}
				slates[key] = slate
				slateOrder = append(slateOrder, key)
			}
			slate.GameIDs = append(slate.GameIDs, game.GameID)
		}

		for _, name := range []string{r.Team, r.Opponent} {
			code := TeamCode(name)
			if _, exists := res.Teams[code]; !exists {
				res.Teams[code] = &models.Team{TeamCode: code, TeamName: name, Sport: r.Sport}
			}
		}

		teamCode := TeamCode(r.Team)
		playerID := PlayerID(r.Team, r.Player, n.hashLength)
		if _, exists := res.Players[playerID]; !exists {
			res.Players[playerID] = &models.Player{
				PlayerID:   playerID,
				PlayerName: r.Player,
				TeamCode:   teamCode,
				Sport:      r.Sport,
			}
		}

		// Props follow their game's bucket so every gameId resolves in the same bucket
		prop := models.Prop{
			PropID:       PropID(game.GameID, playerID, r.Stat),
			GameID:       game.GameID,
			PlayerID:     playerID,
			Stat:         r.Stat,
			Line:         r.Line,
			TeamCode:     teamCode,
			OpponentCode: TeamCode(r.Opponent),
			OddsType:     models.OddsTypeStandard,
			Sport:        r.Sport,
			StartTime:    r.StartTime,
			StartTimeISO: r.StartTimeISO,
			DayBranch:    game.DayBranch,
		}

		// Last write wins on propId collisions
		if idx, exists := propIndex[prop.PropID]; exists {
			res.Props[idx] = prop
			res.Stats.Overwritten++
			continue
		}
		propIndex[prop.PropID] = len(res.Props)
		res.Props = append(res.Props, prop)
		slates[slateKey{bucket: game.DayBranch, slate: game.Slate}].TotalProps++
	}

	for _, key := range slateOrder {
		res.Slates = append(res.Slates, *slates[key])
	}
	res.Stats.Emitted = len(res.Props)

	return res
}

// Bucket extracts one bucket's entity set. Teams and players are restricted
// to those referenced by the bucket's games and props.
func (r *Result) Bucket(b models.Bucket) *models.BucketSet {
	set := &models.BucketSet{
		Bucket:  b,
		Games:   make([]models.Game, 0),
		Teams:   make([]models.Team, 0),
		Players: make([]models.Player, 0),
		Props:   make([]models.Prop, 0),
		Slates:  make([]models.Slate, 0),
	}

	teamCodes := make(map[string]struct{})
	playerIDs := make(map[string]struct{})

	for _, g := range r.Games {
		if g.DayBranch != b {
			continue
		}
		game := *g
		game.Teams = append([]string(nil), g.Teams...)
		set.Games = append(set.Games, game)
		for _, name := range g.Teams {
			teamCodes[TeamCode(name)] = struct{}{}
		}
	}

	for _, p := range r.Props {
		if p.DayBranch != b {
			continue
		}
		set.Props = append(set.Props, p)
		teamCodes[p.TeamCode] = struct{}{}
		teamCodes[p.OpponentCode] = struct{}{}
		playerIDs[p.PlayerID] = struct{}{}
	}

	for id := range playerIDs {
		player, ok := r.Players[id]
		if !ok {
			continue
		}
		set.Players = append(set.Players, *player)
		teamCodes[player.TeamCode] = struct{}{}
	}

	for code := range teamCodes {
		if team, ok := r.Teams[code]; ok {
			set.Teams = append(set.Teams, *team)
		}
	}

	for _, s := range r.Slates {
		if s.DayBranch != b {
			continue
		}
		slate := s
		slate.GameIDs = append(make([]string, 0, len(s.GameIDs)), s.GameIDs...)
		set.Slates = append(set.Slates, slate)
	}

	set.Sort()
	return set
}
