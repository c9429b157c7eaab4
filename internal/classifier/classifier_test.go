package classifier

import (
	"testing"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func TestParseStartTime(t *testing.T) {
	loc := chicago(t)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"padded", "10/16/26 07:15 PM", time.Date(2026, 10, 16, 19, 15, 0, 0, loc)},
		{"unpadded hour", "10/16/26 7:15 PM", time.Date(2026, 10, 16, 19, 15, 0, 0, loc)},
		{"zone marker", "10/17/26 12:00 PM CST", time.Date(2026, 10, 17, 12, 0, 0, 0, loc)},
		{"morning", "01/02/27 9:30 AM", time.Date(2027, 1, 2, 9, 30, 0, 0, loc)},
		{"surrounding space", "  10/16/26 7:15 PM CDT ", time.Date(2026, 10, 16, 19, 15, 0, 0, loc)},
		{"lowercase meridiem", "10/16/26 7:15 pm", time.Date(2026, 10, 16, 19, 15, 0, 0, loc)},
		{"mixed case with marker", "10/17/26 9:05 Am cst", time.Date(2026, 10, 17, 9, 5, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStartTime(tt.input, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseStartTime_Invalid(t *testing.T) {
	loc := chicago(t)

	for _, input := range []string{"", "tomorrow", "2026-10-16T19:15:00Z", "13/45/26 7:15 PM"} {
		_, err := ParseStartTime(input, loc)
		assert.Error(t, err, "input %q should not parse", input)
	}
}

func TestClassify(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 10, 16, 23, 50, 0, 0, loc)

	assert.Equal(t, models.BucketCurrentDay, Classify(time.Date(2026, 10, 16, 0, 0, 0, 0, loc), now))
	assert.Equal(t, models.BucketCurrentDay, Classify(time.Date(2026, 10, 16, 23, 59, 0, 0, loc), now))
	assert.Equal(t, models.BucketTomorrow, Classify(time.Date(2026, 10, 17, 12, 0, 0, 0, loc), now))
	assert.Equal(t, models.BucketNone, Classify(time.Date(2026, 10, 15, 20, 0, 0, 0, loc), now), "yesterday is excluded")
	assert.Equal(t, models.BucketNone, Classify(time.Date(2026, 10, 18, 1, 0, 0, 0, loc), now), "day after tomorrow is excluded")
}

func TestClassify_MonthAndDSTBoundaries(t *testing.T) {
	loc := chicago(t)

	endOfMonth := time.Date(2026, 10, 31, 10, 0, 0, 0, loc)
	assert.Equal(t, models.BucketTomorrow, Classify(time.Date(2026, 11, 1, 12, 0, 0, 0, loc), endOfMonth))

	// 2026-11-01 is the fall-back day in America/Chicago
	dstDay := time.Date(2026, 11, 1, 0, 30, 0, 0, loc)
	assert.Equal(t, models.BucketTomorrow, Classify(time.Date(2026, 11, 2, 0, 5, 0, 0, loc), dstDay))
	assert.Equal(t, models.BucketCurrentDay, Classify(time.Date(2026, 11, 1, 23, 30, 0, 0, loc), dstDay))
}

func TestClassifier_UsesSourceTimezone(t *testing.T) {
	loc := chicago(t)
	// 03:00 UTC on the 17th is still the evening of the 16th in Chicago
	now := func() time.Time { return time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC) }
	c := New(loc, now)

	assert.Equal(t, "2026-10-16", c.Today())

	ts, err := c.Parse("10/16/26 8:00 PM")
	require.NoError(t, err)
	assert.Equal(t, models.BucketCurrentDay, c.Classify(ts))

	ts, err = c.Parse("10/17/26 11:00 AM")
	require.NoError(t, err)
	assert.Equal(t, models.BucketTomorrow, c.Classify(ts))
}

func TestSlateFor(t *testing.T) {
	loc := chicago(t)

	assert.Equal(t, models.SlateEarly, SlateFor(time.Date(2026, 10, 16, 12, 0, 0, 0, loc)))
	assert.Equal(t, models.SlateEarly, SlateFor(time.Date(2026, 10, 16, 14, 59, 0, 0, loc)))
	assert.Equal(t, models.SlateLate, SlateFor(time.Date(2026, 10, 16, 15, 0, 0, 0, loc)))
	assert.Equal(t, models.SlateLate, SlateFor(time.Date(2026, 10, 16, 19, 15, 0, 0, loc)))
}
