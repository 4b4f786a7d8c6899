package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/config"
	"github.com/copbot/locator/internal/locator"
)

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SessionEntry wraps a locator controller with its expiry.
type SessionEntry struct {
	Controller *locator.Controller
	ExpiresAt  time.Time
}

// SessionCache keeps one locator controller per client session. Sessions
// expire after a period of inactivity; an evicted or expired controller is
// closed so any result still in flight for it is dropped.
type SessionCache struct {
	lru   *lru.Cache[string, *SessionEntry]
	ttl   time.Duration
	clock clock
	mu    sync.Mutex
}

func NewSessionCache(cfg *config.SessionCacheConfig) (*SessionCache, error) {
	return newSessionCache(cfg.SessionLRUSize, cfg.GetSessionTTL(), systemClock{})
}

func newSessionCache(size int, ttl time.Duration, clk clock) (*SessionCache, error) {
	lruCache, err := lru.NewWithEvict[string, *SessionEntry](size, func(key string, entry *SessionEntry) {
		log.Debug().Str("session", key).Msg("Closing evicted locator session")
		entry.Controller.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("creating session LRU cache: %w", err)
	}

	return &SessionCache{
		lru:   lruCache,
		ttl:   ttl,
		clock: clk,
	}, nil
}

// Get returns the live controller for id and extends its expiry.
func (c *SessionCache) Get(id string) (*locator.Controller, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}

	now := c.clock.Now()
	if now.After(entry.ExpiresAt) {
		c.lru.Remove(id)
		return nil, false
	}

	entry.ExpiresAt = now.Add(c.ttl)
	return entry.Controller, true
}

func (c *SessionCache) Add(id string, controller *locator.Controller) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(id, &SessionEntry{
		Controller: controller,
		ExpiresAt:  c.clock.Now().Add(c.ttl),
	})
}

func (c *SessionCache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Remove(id)
}

func (c *SessionCache) Len() int {
	return c.lru.Len()
}

// Clear closes and drops every session.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
