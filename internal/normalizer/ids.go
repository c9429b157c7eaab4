package normalizer

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

// DefaultHashLength is the number of hex characters of the player id content hash
const DefaultHashLength = 8

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// CleanKey lowercases and replaces spaces with hyphens
func CleanKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// Slug lowercases and collapses every run of non-alphanumerics into a single hyphen
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TeamCode derives the team identity from its display name
func TeamCode(teamName string) string {
	return CleanKey(teamName)
}

// PlayerID derives the player identity from team and player name.
// The slug alone can collide for different inputs ("A.J. Brown" vs "AJ Brown"),
// so a truncated SHA-1 of the raw "team_player" string is appended.
func PlayerID(team, player string, hashLength int) string {
	if hashLength <= 0 {
		hashLength = DefaultHashLength
	}
	base := team + "_" + player
	sum := sha1.Sum([]byte(base))
	digest := hex.EncodeToString(sum[:])
	if hashLength > len(digest) {
		hashLength = len(digest)
	}
	return Slug(base) + "-" + digest[:hashLength]
}

// PropID derives the prop identity, unique per (game, player, stat)
func PropID(gameID, playerID, stat string) string {
	return gameID + "_" + playerID + "_" + CleanKey(stat)
}
