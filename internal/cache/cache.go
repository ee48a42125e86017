// Package cache holds the TTL caches in front of the GitHub and LLM calls.
// Both are best-effort; a miss just means the upstream call is repeated.
package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/gitgud-app/gitgud/internal/github"
	"github.com/gitgud-app/gitgud/internal/llm"
)

const (
	// SignalTTL is how long GitHub signals stay fresh.
	SignalTTL = 5 * time.Minute
	// RoastTTL is how long generated roasts are reused.
	RoastTTL = 10 * time.Minute
)

// SignalCache caches GitHub signals keyed by (username, maxRepos,
// includeReadme). Usernames are case-insensitive on GitHub.
type SignalCache struct {
	c *gocache.Cache
}

// NewSignalCache creates a signal cache with the given TTL.
func NewSignalCache(ttl time.Duration) *SignalCache {
	return &SignalCache{c: gocache.New(ttl, ttl)}
}

func signalKey(username string, maxRepos int, includeReadme bool) string {
	return fmt.Sprintf("%s|%d|%t", strings.ToLower(username), maxRepos, includeReadme)
}

// Get returns the cached signals, or nil on a miss.
func (sc *SignalCache) Get(username string, maxRepos int, includeReadme bool) *github.Signals {
	if v, ok := sc.c.Get(signalKey(username, maxRepos, includeReadme)); ok {
		return v.(*github.Signals)
	}
	return nil
}

// Set stores signals under the composite key.
func (sc *SignalCache) Set(username string, maxRepos int, includeReadme bool, signals *github.Signals) {
	sc.c.SetDefault(signalKey(username, maxRepos, includeReadme), signals)
}

// RoastCache caches roast results keyed by (username, intensity).
type RoastCache struct {
	c *gocache.Cache
}

// NewRoastCache creates a roast cache with the given TTL.
func NewRoastCache(ttl time.Duration) *RoastCache {
	return &RoastCache{c: gocache.New(ttl, ttl)}
}

func roastKey(username string, intensity llm.Intensity) string {
	return strings.ToLower(username) + "|" + string(intensity)
}

// Get returns the cached roast, or nil on a miss.
func (rc *RoastCache) Get(username string, intensity llm.Intensity) *llm.RoastResult {
	if v, ok := rc.c.Get(roastKey(username, intensity)); ok {
		return v.(*llm.RoastResult)
	}
	return nil
}

// Set stores a roast under the composite key.
func (rc *RoastCache) Set(username string, intensity llm.Intensity, roast *llm.RoastResult) {
	rc.c.SetDefault(roastKey(username, intensity), roast)
}
