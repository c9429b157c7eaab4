package models

// Team represents a team referenced by a bucket's games or props
type Team struct {
	TeamCode string `json:"teamCode"`
	TeamName string `json:"teamName"`
	Sport    string `json:"sport"`
}

// Player represents a player referenced by a bucket's props.
// PlayerID is derived from team and player name, see normalizer.PlayerID.
type Player struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	TeamCode   string `json:"teamCode"`
	Sport      string `json:"sport"`
}
