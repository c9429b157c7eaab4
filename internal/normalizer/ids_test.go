package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKey(t *testing.T) {
	assert.Equal(t, "dallas", CleanKey("Dallas"))
	assert.Equal(t, "new-york-giants", CleanKey("New York Giants"))
	assert.Equal(t, "rushyds", CleanKey("rushYds"))
	assert.Equal(t, "pass-yards", CleanKey("Pass Yards"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "nfl", Slug("NFL"))
	assert.Equal(t, "early", Slug("Early"))
	assert.Equal(t, "dallas-joe-smith", Slug("Dallas_Joe Smith"))
	assert.Equal(t, "a-j-brown", Slug("  A.J.  Brown!! "))
	assert.Equal(t, "", Slug("---"))
}

func TestPlayerID(t *testing.T) {
	id := PlayerID("Dallas", "Joe Smith", DefaultHashLength)
	assert.Regexp(t, `^dallas-joe-smith-[0-9a-f]{8}$`, id)
	assert.Equal(t, id, PlayerID("Dallas", "Joe Smith", DefaultHashLength), "ids must be reproducible")

	// identical slugs, different raw names
	assert.NotEqual(t, PlayerID("Philadelphia", "A.J. Brown", 8), PlayerID("Philadelphia", "AJ Brown", 8))

	// team is part of the identity
	assert.NotEqual(t, PlayerID("Dallas", "Joe Smith", 8), PlayerID("Houston", "Joe Smith", 8))
}

func TestPlayerID_HashLength(t *testing.T) {
	assert.Regexp(t, `^dallas-joe-smith-[0-9a-f]{12}$`, PlayerID("Dallas", "Joe Smith", 12))
	assert.Regexp(t, `^dallas-joe-smith-[0-9a-f]{8}$`, PlayerID("Dallas", "Joe Smith", 0))
	assert.Regexp(t, `^dallas-joe-smith-[0-9a-f]{40}$`, PlayerID("Dallas", "Joe Smith", 99))
}

func TestPropID(t *testing.T) {
	assert.Equal(t, "g1_dallas-joe-smith-abcd1234_rush-yards", PropID("g1", "dallas-joe-smith-abcd1234", "Rush Yards"))
}
