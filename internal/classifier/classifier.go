// Package classifier decides which rolling day bucket a prop start time belongs to.
package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/models"
)

// startTimeLayout matches feed timestamps such as "10/16/26 7:15 PM".
// Non-padded month, day and hour digits parse as well.
const startTimeLayout = "1/2/06 3:04 PM"

// lateSlateHour is the first local hour of the Late slate
const lateSlateHour = 15

// zoneMarkers are the fixed suffixes feeds append to start times
var zoneMarkers = []string{" CST", " CDT", " CT"}

// Classifier classifies timestamps against "now" in a fixed source timezone
type Classifier struct {
	loc *time.Location
	now func() time.Time
}

// New creates a classifier for the given source timezone.
// now may be nil, in which case time.Now is used.
func New(loc *time.Location, now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{loc: loc, now: now}
}

// Location returns the source timezone
func (c *Classifier) Location() *time.Location {
	return c.loc
}

// Now returns the invocation's current time in the source timezone
func (c *Classifier) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the ISO calendar date of Now, used as the archive key
func (c *Classifier) Today() string {
	return c.Now().Format("2006-01-02")
}

// Parse parses a feed start time in the source timezone
func (c *Classifier) Parse(ts string) (time.Time, error) {
	return ParseStartTime(ts, c.loc)
}

// Classify returns the bucket of ts relative to the classifier's clock
func (c *Classifier) Classify(ts time.Time) models.Bucket {
	return Classify(ts.In(c.loc), c.Now())
}

// ParseStartTime parses "MM/DD/YY h:mm AM|PM" with an optional timezone marker
func ParseStartTime(ts string, loc *time.Location) (time.Time, error) {
	// The layout only matches an uppercase meridiem; digits are unaffected
	s := strings.ToUpper(strings.TrimSpace(ts))
	for _, marker := range zoneMarkers {
		s = strings.TrimSuffix(s, marker)
	}

	t, err := time.ParseInLocation(startTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse start time %q: %w", ts, err)
	}
	return t, nil
}

// Classify compares calendar dates of ts and now (both already in the source timezone).
// It is total: anything other than today or tomorrow is BucketNone.
func Classify(ts, now time.Time) models.Bucket {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())

	switch {
	case sameDate(ts, today):
		return models.BucketCurrentDay
	case sameDate(ts, tomorrow):
		return models.BucketTomorrow
	default:
		return models.BucketNone
	}
}

// SlateFor returns Early before 15:00 local time, Late otherwise
func SlateFor(ts time.Time) models.SlateLabel {
	if ts.Hour() < lateSlateHour {
		return models.SlateEarly
	}
	return models.SlateLate
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
