package slicer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/enkday/prizepicks-data-mirror/internal/repository"

	"github.com/rs/zerolog/log"
)

// DefaultActionLimit is the number of props kept per action slice
const DefaultActionLimit = 200

// ActionDays are the raw feed days that get a top-N slice
var ActionDays = []string{"tomorrow", "today"}

// ActionSlicer writes small top-N-by-rank copies of the raw daily feeds
type ActionSlicer struct {
	dir   string
	limit int
}

// NewActionSlicer creates an action slicer over the raw feed directory
func NewActionSlicer(dir string, limit int) *ActionSlicer {
	if limit <= 0 {
		limit = DefaultActionLimit
	}
	return &ActionSlicer{dir: dir, limit: limit}
}

// InputPath returns the raw feed file of a day
func (a *ActionSlicer) InputPath(day string) string {
	return filepath.Join(a.dir, fmt.Sprintf("prizepicks-nfl-%s.json", day))
}

// OutputPath returns the action slice file of a day
func (a *ActionSlicer) OutputPath(day string) string {
	return filepath.Join(a.dir, fmt.Sprintf("prizepicks-nfl-%s-top-%d.json", day, a.limit))
}

// Run slices every action day. Missing inputs are skipped; the returned
// slice lists the files written.
func (a *ActionSlicer) Run() ([]string, error) {
	written := make([]string, 0, len(ActionDays))
	for _, day := range ActionDays {
		ok, err := a.slice(day)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, a.OutputPath(day))
		}
	}
	return written, nil
}

func (a *ActionSlicer) slice(day string) (bool, error) {
	in := a.InputPath(day)
	data, err := os.ReadFile(in)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", in).Msg("Missing action slice input")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", in, err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", in, err)
	}

	var props []json.RawMessage
	if raw, ok := doc["props"]; ok {
		if err := json.Unmarshal(raw, &props); err != nil {
			props = nil
		}
	}

	top := TopByRank(props, a.limit)

	propsJSON, err := json.Marshal(top)
	if err != nil {
		return false, fmt.Errorf("failed to encode props: %w", err)
	}
	doc["props"] = propsJSON
	doc["totalProps"] = json.RawMessage(fmt.Sprintf("%d", len(top)))

	out := a.OutputPath(day)
	if err := repository.WriteJSON(out, doc); err != nil {
		return false, err
	}

	log.Info().
		Str("path", out).
		Int("props", len(top)).
		Msg("Wrote action slice")
	return true, nil
}

// TopByRank returns at most limit props sorted by ascending numeric rank.
// Props without a numeric rank sort last, keeping their input order.
func TopByRank(props []json.RawMessage, limit int) []json.RawMessage {
	type ranked struct {
		rank float64
		raw  json.RawMessage
	}

	items := make([]ranked, 0, len(props))
	for _, p := range props {
		items = append(items, ranked{rank: rankOf(p), raw: p})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].rank < items[j].rank })

	if limit < len(items) {
		items = items[:limit]
	}
	top := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		top = append(top, it.raw)
	}
	return top
}

func rankOf(raw json.RawMessage) float64 {
	var v struct {
		Rank any `json:"rank"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return math.Inf(1)
	}
	if f, ok := v.Rank.(float64); ok {
		return f
	}
	return math.Inf(1)
}
