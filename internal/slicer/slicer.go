// Package slicer re-projects a bucket's normalized props into per-game and
// per-slate files with a sport-level index for fast lookup.
package slicer

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/enkday/prizepicks-data-mirror/internal/models"
	"github.com/enkday/prizepicks-data-mirror/internal/normalizer"
	"github.com/enkday/prizepicks-data-mirror/internal/repository"

	"github.com/rs/zerolog/log"
)

// File and directory names of a sport tree, and the default public root of index paths
const (
	IndexFile    = "props-index.json"
	ByGameDir    = "props-by-game"
	BySlateDir   = "props-by-slate"
	DefaultIndex = "/data/hierarchy"

	tmpPrefix = ".slice-"
)

// Slicer writes the per-sport derived files of a bucket
type Slicer struct {
	pathPrefix string
}

// Result describes one slicing pass. Skipped is true when the bucket's
// input files were absent, which is an expected off-season condition.
type Result struct {
	Bucket  models.Bucket
	Skipped bool
	Indexes []models.PropsIndex
}

// PropCount sums the prop counts of every sport index
func (r *Result) PropCount() int {
	total := 0
	for _, idx := range r.Indexes {
		total += idx.PropCount
	}
	return total
}

// New creates a slicer. pathPrefix is the public root used in index paths.
func New(pathPrefix string) *Slicer {
	if pathPrefix == "" {
		pathPrefix = DefaultIndex
	}
	return &Slicer{pathPrefix: strings.TrimRight(pathPrefix, "/")}
}

type gameMeta struct {
	slate     *models.SlateLabel
	startTime *string
	teams     []string
}

type sportGroup struct {
	sport  string
	slug   string
	props  []models.Prop
	byGame map[string][]models.Prop
	bySlug map[string][]models.Prop
}

// SliceBucket reads games.json and props.json from dir and writes one
// {sport-slug}/ tree per sport. bucket names the branch used in index paths,
// so a staged directory can be sliced before it is swapped into place.
func (s *Slicer) SliceBucket(dir string, bucket models.Bucket) (*Result, error) {
	result := &Result{Bucket: bucket, Indexes: make([]models.PropsIndex, 0)}

	games, err := repository.ReadGames(dir)
	if errors.Is(err, repository.ErrBucketNotFound) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	props, err := repository.ReadProps(dir)
	if errors.Is(err, repository.ErrBucketNotFound) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	meta := make(map[string]gameMeta, len(games))
	for _, g := range games {
		id := strings.TrimSpace(g.GameID)
		if id == "" || strings.TrimSpace(g.Sport) == "" {
			continue
		}
		m := gameMeta{teams: g.Teams}
		if g.Slate != "" {
			slate := g.Slate
			m.slate = &slate
		}
		startTime := g.StartTime
		m.startTime = &startTime
		meta[id] = m
	}

	groups := groupBySport(props, meta)

	sports := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		idx, err := s.writeSport(dir, bucket, g, meta)
		if err != nil {
			return nil, err
		}
		sports[g.slug] = struct{}{}
		result.Indexes = append(result.Indexes, *idx)
	}

	if err := removeStaleSports(dir, sports); err != nil {
		return nil, err
	}

	log.Debug().
		Str("bucket", bucket.String()).
		Int("sports", len(result.Indexes)).
		Int("props", result.PropCount()).
		Msg("Sliced bucket")

	return result, nil
}

func groupBySport(props []models.Prop, meta map[string]gameMeta) []*sportGroup {
	bySport := make(map[string]*sportGroup)

	for _, p := range props {
		if p.OddsType != models.OddsTypeStandard {
			continue
		}
		sport := strings.TrimSpace(p.Sport)
		gameID := strings.TrimSpace(p.GameID)
		sportSlug := normalizer.Slug(sport)
		if sportSlug == "" {
			continue
		}

		// Spellings sharing a slug share one tree; the first spelling names the sport
		g, ok := bySport[sportSlug]
		if !ok {
			g = &sportGroup{
				sport:  sport,
				slug:   sportSlug,
				byGame: make(map[string][]models.Prop),
				bySlug: make(map[string][]models.Prop),
			}
			bySport[sportSlug] = g
		}
		g.props = append(g.props, p)

		if gameID == "" {
			continue
		}
		g.byGame[gameID] = append(g.byGame[gameID], p)

		if m, ok := meta[gameID]; ok && m.slate != nil {
			slug := normalizer.Slug(string(*m.slate))
			g.bySlug[slug] = append(g.bySlug[slug], p)
		}
	}

	groups := make([]*sportGroup, 0, len(bySport))
	for _, g := range bySport {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].slug < groups[j].slug })
	return groups
}

// writeSport builds a sport tree in a temp directory beside the target and swaps it in
func (s *Slicer) writeSport(dir string, bucket models.Bucket, g *sportGroup, meta map[string]gameMeta) (*models.PropsIndex, error) {
	tmp, err := os.MkdirTemp(dir, tmpPrefix+g.slug+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create slice dir for %s: %w", g.sport, err)
	}
	defer os.RemoveAll(tmp)

	index := &models.PropsIndex{
		Sport:     g.sport,
		SportSlug: g.slug,
		DayBranch: bucket,
		PropCount: len(g.props),
		Games:     make([]models.GameIndexEntry, 0, len(g.byGame)),
		Slates:    make([]models.SlateIndexEntry, 0, len(g.bySlug)),
	}

	for _, gameID := range sortedKeys(g.byGame) {
		items := g.byGame[gameID]
		name := fileName(gameID)
		if err := repository.WriteJSON(filepath.Join(tmp, ByGameDir, name), items); err != nil {
			return nil, err
		}

		entry := models.GameIndexEntry{
			GameID:       gameID,
			StartTimeISO: items[0].StartTimeISO,
			PropCount:    len(items),
			Path:         s.publicPath(bucket, g.slug, ByGameDir, name),
		}
		if m, ok := meta[gameID]; ok {
			entry.Slate = m.slate
			entry.StartTime = m.startTime
			entry.Teams = m.teams
		}
		index.Games = append(index.Games, entry)
	}

	for _, slug := range sortedKeys(g.bySlug) {
		items := g.bySlug[slug]
		name := slug + ".json"
		if err := repository.WriteJSON(filepath.Join(tmp, BySlateDir, name), items); err != nil {
			return nil, err
		}
		index.Slates = append(index.Slates, models.SlateIndexEntry{
			Slate:     slug,
			PropCount: len(items),
			Path:      s.publicPath(bucket, g.slug, BySlateDir, name),
		})
	}

	index.GameCount = len(index.Games)
	SortGameIndex(index.Games)

	if err := repository.WriteJSON(filepath.Join(tmp, IndexFile), index); err != nil {
		return nil, err
	}

	if err := swapDir(tmp, filepath.Join(dir, g.slug)); err != nil {
		return nil, fmt.Errorf("failed to install %s slices: %w", g.sport, err)
	}
	return index, nil
}

// SortGameIndex orders entries by (startTimeIso, gameId); a missing startTimeIso sorts first
func SortGameIndex(entries []models.GameIndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := deref(entries[i].StartTimeISO), deref(entries[j].StartTimeISO)
		if a != b {
			return a < b
		}
		return entries[i].GameID < entries[j].GameID
	})
}

func (s *Slicer) publicPath(bucket models.Bucket, sportSlug, kind, name string) string {
	return path.Join(s.pathPrefix, string(bucket), sportSlug, kind, name)
}

// swapDir replaces dst with src. The previous tree is removed only after src is in place.
func swapDir(src, dst string) error {
	old := ""
	if _, err := os.Stat(dst); err == nil {
		old = dst + ".old"
		os.RemoveAll(old)
		if err := os.Rename(dst, old); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dst); err != nil {
		if old != "" {
			os.Rename(old, dst)
		}
		return err
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

// removeStaleSports deletes sport trees left from a previous pass whose sport no longer has props
func removeStaleSports(dir string, keep map[string]struct{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), IndexFile)); err != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove stale sport %s: %w", e.Name(), err)
		}
	}
	return nil
}

// fileName keeps game ids usable as file names. Rewritten ids carry a hash
// of the original so "a/b" and "a-b" land in different files.
func fileName(gameID string) string {
	if strings.ContainsAny(gameID, `/\`) || gameID == "." || gameID == ".." {
		sum := sha1.Sum([]byte(gameID))
		return normalizer.Slug(gameID) + "-" + hex.EncodeToString(sum[:])[:8] + ".json"
	}
	return gameID + ".json"
}

func sortedKeys(m map[string][]models.Prop) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
