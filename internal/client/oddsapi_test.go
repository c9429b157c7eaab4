package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOddsClient_FetchOdds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/americanfootball_nfl/odds/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("apiKey"))
		assert.Equal(t, "us", q.Get("regions"))
		assert.Equal(t, "player_pass_yds,player_rush_yds", q.Get("markets"))
		assert.Equal(t, "american", q.Get("oddsFormat"))
		w.Write([]byte(`[{"id":"e1"},{"id":"e2"}]`))
	}))
	defer server.Close()

	c := NewOddsClient(server.URL, "secret", "", "", testOptions())
	c.now = func() time.Time { return time.Unix(1792130400, 0) }

	snap, err := c.FetchOdds(context.Background(), "americanfootball_nfl", []string{"player_pass_yds", "player_rush_yds"})
	require.NoError(t, err)
	assert.Equal(t, int64(1792130400), snap.FetchedAt)
	assert.Equal(t, "americanfootball_nfl", snap.Sport)
	assert.Equal(t, "us", snap.Region)
	assert.Equal(t, 2, snap.EventCount())
}

func TestOddsClient_NoAPIKey(t *testing.T) {
	c := NewOddsClient("", "", "", "", HTTPOptions{})
	_, err := c.FetchOdds(context.Background(), "basketball_nba", nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOddsClient_AuthFailureIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewOddsClient(server.URL, "bad", "", "", testOptions())
	_, err := c.FetchOdds(context.Background(), "basketball_nba", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestOddsClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`oops`))
	}))
	defer server.Close()

	c := NewOddsClient(server.URL, "k", "", "", testOptions())
	_, err := c.FetchOdds(context.Background(), "basketball_nba", nil)
	assert.Error(t, err)
}
