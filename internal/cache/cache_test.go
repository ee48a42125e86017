package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgud-app/gitgud/internal/github"
	"github.com/gitgud-app/gitgud/internal/llm"
)

func TestSignalCacheKeying(t *testing.T) {
	c := NewSignalCache(time.Minute)

	signals := &github.Signals{Profile: github.SignalProfile{PublicRepos: 3}}
	c.Set("Octocat", 5, false, signals)

	// Usernames are case-insensitive; the other key parts are not.
	got := c.Get("octocat", 5, false)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Profile.PublicRepos)

	assert.Nil(t, c.Get("octocat", 10, false))
	assert.Nil(t, c.Get("octocat", 5, true))
	assert.Nil(t, c.Get("other", 5, false))
}

func TestSignalCacheExpiry(t *testing.T) {
	c := NewSignalCache(10 * time.Millisecond)
	c.Set("octocat", 5, false, &github.Signals{})

	require.NotNil(t, c.Get("octocat", 5, false))
	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, c.Get("octocat", 5, false))
}

func TestRoastCacheKeying(t *testing.T) {
	c := NewRoastCache(time.Minute)

	roast := &llm.RoastResult{Roast: "ouch"}
	c.Set("Octocat", llm.IntensityMedium, roast)

	got := c.Get("octocat", llm.IntensityMedium)
	require.NotNil(t, got)
	assert.Equal(t, "ouch", got.Roast)

	assert.Nil(t, c.Get("octocat", llm.IntensitySpicy))
}
