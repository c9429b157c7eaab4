package models

import (
	"encoding/json"
)

// OddsSnapshot is a raw odds pull saved for a sport.
// Snapshots are a side channel and never merged into the hierarchy.
type OddsSnapshot struct {
	FetchedAt int64           `json:"fetchedAt"`
	Sport     string          `json:"sport"`
	Markets   []string        `json:"markets"`
	Region    string          `json:"region"`
	Odds      json.RawMessage `json:"odds"`
}

// EventCount returns the number of events in the snapshot, 0 if Odds is not an array
func (s *OddsSnapshot) EventCount() int {
	var events []json.RawMessage
	if err := json.Unmarshal(s.Odds, &events); err != nil {
		return 0
	}
	return len(events)
}
