package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OddsTypeStandard is the only odds type admitted into the hierarchy
const OddsTypeStandard = "standard"

// RawProp is one player proposition record from an upstream feed.
// It is only used during a normalization round and then discarded.
type RawProp struct {
	GameID       string
	Sport        string
	StartTime    string
	StartTimeISO *string
	Team         string
	Opponent     string
	Player       string
	Stat         string
	Line         float64
	OddsType     string
}

// IsStandard returns true when the record carries standard odds
func (r *RawProp) IsStandard() bool {
	return strings.EqualFold(strings.TrimSpace(r.OddsType), OddsTypeStandard)
}

// DedupKey is the explicit duplicate key applied before normalization
type DedupKey struct {
	Player    string
	Stat      string
	StartTime string
	Team      string
	Opponent  string
}

// DedupKey returns the (player, stat, startTime, team, opponent) key of the record
func (r *RawProp) DedupKey() DedupKey {
	return DedupKey{
		Player:    r.Player,
		Stat:      r.Stat,
		StartTime: r.StartTime,
		Team:      r.Team,
		Opponent:  r.Opponent,
	}
}

// RawPropInput is the wire shape of a feed record
type RawPropInput struct {
	GameID       FlexString `json:"gameId"`
	Sport        string     `json:"sport"`
	StartTime    string     `json:"startTime"`
	StartTimeISO *string    `json:"startTimeIso,omitempty"`
	Team         string     `json:"Team"`
	Opponent     string     `json:"Opponent"`
	Player       string     `json:"player"`
	Stat         string     `json:"stat"`
	Line         *FlexFloat `json:"line"`
	OddsType     string     `json:"oddsType"`
}

// ToRawProp converts the feed record into a RawProp.
// A record missing any identifying field is malformed and rejected.
func (ri *RawPropInput) ToRawProp() (*RawProp, error) {
	missing := make([]string, 0)
	if ri.GameID == "" {
		missing = append(missing, "gameId")
	}
	if ri.Sport == "" {
		missing = append(missing, "sport")
	}
	if ri.StartTime == "" {
		missing = append(missing, "startTime")
	}
	if ri.Team == "" {
		missing = append(missing, "Team")
	}
	if ri.Opponent == "" {
		missing = append(missing, "Opponent")
	}
	if ri.Player == "" {
		missing = append(missing, "player")
	}
	if ri.Stat == "" {
		missing = append(missing, "stat")
	}
	if ri.Line == nil {
		missing = append(missing, "line")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("raw prop missing fields: %s", strings.Join(missing, ", "))
	}

	return &RawProp{
		GameID:       string(ri.GameID),
		Sport:        ri.Sport,
		StartTime:    ri.StartTime,
		StartTimeISO: ri.StartTimeISO,
		Team:         ri.Team,
		Opponent:     ri.Opponent,
		Player:       ri.Player,
		Stat:         ri.Stat,
		Line:         float64(*ri.Line),
		OddsType:     ri.OddsType,
	}, nil
}

// Prop is a normalized player proposition.
// PropID is {gameId}_{playerId}_{stat key}, one per (game, player, stat).
type Prop struct {
	PropID       string  `json:"propId"`
	GameID       string  `json:"gameId"`
	PlayerID     string  `json:"playerId"`
	Stat         string  `json:"stat"`
	Line         float64 `json:"line"`
	TeamCode     string  `json:"teamCode"`
	OpponentCode string  `json:"opponentCode"`
	OddsType     string  `json:"oddsType"`
	Sport        string  `json:"sport"`
	StartTime    string  `json:"startTime"`
	StartTimeISO *string `json:"startTimeIso"`
	DayBranch    Bucket  `json:"dayBranch"`
}

// FlexString accepts a JSON string or number. Feeds are inconsistent about game ids.
type FlexString string

// UnmarshalJSON trims strings and keeps numbers in their literal form
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = FlexString(n.String())
	return nil
}

// FlexFloat accepts a JSON number or a numeric string
type FlexFloat float64

// UnmarshalJSON parses a number or a quoted number
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid line %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid line %s: %w", string(data), err)
	}
	*f = FlexFloat(v)
	return nil
}
