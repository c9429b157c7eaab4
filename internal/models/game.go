package models

// SlateLabel is the coarse time-of-day grouping of a game
type SlateLabel string

const (
	SlateEarly SlateLabel = "Early"
	SlateLate  SlateLabel = "Late"
)

// Game represents one game within a bucket.
// Identity is GameID; the first record seen for a game fixes its metadata.
type Game struct {
	GameID    string     `json:"gameId"`
	Sport     string     `json:"sport"`
	StartTime string     `json:"startTime"`
	Teams     []string   `json:"teams"`
	Slate     SlateLabel `json:"slate"`
	DayBranch Bucket     `json:"dayBranch"`
}

// Slate aggregates the games of one (bucket, slate label) pair
type Slate struct {
	DayBranch  Bucket     `json:"dayBranch"`
	Slate      SlateLabel `json:"slate"`
	GameIDs    []string   `json:"gameIds"`
	TotalProps int        `json:"totalProps"`
}
