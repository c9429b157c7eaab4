package models

import (
	"fmt"
	"sort"
)

// Bucket identifies one of the rolling day partitions of the hierarchy
type Bucket string

const (
	BucketNone       Bucket = ""
	BucketCurrentDay Bucket = "current_day"
	BucketTomorrow   Bucket = "tomorrow"
	BucketArchive    Bucket = "archive"
)

// LiveBuckets are the two buckets rebuilt from raw sources, in write order
var LiveBuckets = []Bucket{BucketCurrentDay, BucketTomorrow}

// IsLive returns true for current_day and tomorrow
func (b Bucket) IsLive() bool {
	return b == BucketCurrentDay || b == BucketTomorrow
}

func (b Bucket) String() string {
	if b == BucketNone {
		return "none"
	}
	return string(b)
}

// ParseBucket converts a CLI or trigger argument into a live bucket
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketCurrentDay, BucketTomorrow:
		return Bucket(s), nil
	default:
		return BucketNone, fmt.Errorf("unknown bucket %q (want %s or %s)", s, BucketCurrentDay, BucketTomorrow)
	}
}

// BucketSet is the complete entity file set of one bucket.
// All five collections are written together and sorted canonically.
type BucketSet struct {
	Bucket  Bucket
	Games   []Game
	Teams   []Team
	Players []Player
	Props   []Prop
	Slates  []Slate
}

// Sort orders every collection by its identity so repeated builds are byte-identical
func (s *BucketSet) Sort() {
	sort.Slice(s.Games, func(i, j int) bool { return s.Games[i].GameID < s.Games[j].GameID })
	sort.Slice(s.Teams, func(i, j int) bool { return s.Teams[i].TeamCode < s.Teams[j].TeamCode })
	sort.Slice(s.Players, func(i, j int) bool { return s.Players[i].PlayerID < s.Players[j].PlayerID })
	sort.Slice(s.Props, func(i, j int) bool { return s.Props[i].PropID < s.Props[j].PropID })
	for i := range s.Slates {
		sort.Strings(s.Slates[i].GameIDs)
	}
	sort.Slice(s.Slates, func(i, j int) bool {
		if s.Slates[i].DayBranch != s.Slates[j].DayBranch {
			return s.Slates[i].DayBranch < s.Slates[j].DayBranch
		}
		return s.Slates[i].Slate < s.Slates[j].Slate
	})
}

// IsEmpty returns true when the bucket holds no games and no props (off-season)
func (s *BucketSet) IsEmpty() bool {
	return len(s.Games) == 0 && len(s.Props) == 0
}
