// Package cache holds the process-local response cache placed in front of read endpoints.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Route TTL presets.
const (
	TTLShort    = time.Minute
	TTLMedium   = 5 * time.Minute
	TTLLong     = 15 * time.Minute
	TTLVeryLong = time.Hour
)

// DefaultSweepInterval is how often expired entries are evicted when none is configured.
const DefaultSweepInterval = 5 * time.Minute

// Entry is a memoized response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
	expiresAt   time.Time
}

// ResponseCache maps request keys to responses with a per-entry TTL.
// Entries are stale for at most their TTL or until a matching write invalidates them.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	now      func() time.Time
	interval time.Duration
	log      zerolog.Logger

	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithClock replaces time.Now, letting tests control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// WithSweepInterval sets the background eviction period.
func WithSweepInterval(d time.Duration) Option {
	return func(c *ResponseCache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger attaches a logger for sweep activity.
func WithLogger(log zerolog.Logger) Option {
	return func(c *ResponseCache) {
		c.log = log.With().Str("component", "response_cache").Logger()
	}
}

// New creates an empty cache. Call Start to run the background sweep.
func New(opts ...Option) *ResponseCache {
	c := &ResponseCache{
		entries:  make(map[string]Entry),
		now:      time.Now,
		interval: DefaultSweepInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key of a request: method, path with query, caller identity.
func Key(method, requestURI, callerID string) string {
	if callerID == "" {
		callerID = "anonymous"
	}
	return method + ":" + requestURI + ":" + callerID
}

// Get returns a live entry for key.
func (c *ResponseCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return Entry{}, false
	}
	return e, true
}

// Set stores e under key for ttl. Last writer wins.
func (c *ResponseCache) Set(key string, e Entry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	e.expiresAt = c.now().Add(ttl)
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Invalidate drops every entry whose key contains any of patterns and returns how many were dropped.
func (c *ResponseCache) Invalidate(patterns ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		for _, p := range patterns {
			if p != "" && strings.Contains(key, p) {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

// Sweep evicts expired entries and returns how many were evicted.
func (c *ResponseCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops everything.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Start launches the background sweep. Calling Start on a running cache is a no-op.
func (c *ResponseCache) Start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done)
}

// Stop halts the background sweep and waits for it to exit.
func (c *ResponseCache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop, c.done = nil, nil
}

func (c *ResponseCache) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.log.Debug().Int("evicted", n).Int("remaining", c.Len()).Msg("Response cache swept")
			}
		}
	}
}
