package models

// PropsIndex is the per-sport props-index.json of a bucket
type PropsIndex struct {
	Sport     string            `json:"sport"`
	SportSlug string            `json:"sportSlug"`
	DayBranch Bucket            `json:"dayBranch"`
	GameCount int               `json:"gameCount"`
	PropCount int               `json:"propCount"`
	Games     []GameIndexEntry  `json:"games"`
	Slates    []SlateIndexEntry `json:"slates"`
}

// GameIndexEntry points at one per-game file.
// Metadata fields are nil when the game is missing from games.json.
type GameIndexEntry struct {
	GameID       string      `json:"gameId"`
	Slate        *SlateLabel `json:"slate"`
	StartTime    *string     `json:"startTime"`
	StartTimeISO *string     `json:"startTimeIso"`
	Teams        []string    `json:"teams"`
	PropCount    int         `json:"propCount"`
	Path         string      `json:"path"`
}

// SlateIndexEntry points at one per-slate file
type SlateIndexEntry struct {
	Slate     string `json:"slate"`
	PropCount int    `json:"propCount"`
	Path      string `json:"path"`
}
