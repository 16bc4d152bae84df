package tutorial

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCache holds live sessions and evicts idle ones
type SessionCache struct {
	data    map[uuid.UUID]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
	stopped sync.Once
	onEvict func(*Session)
	now     func() time.Time
}

// cacheEntry represents a cache entry with expiration
type cacheEntry struct {
	session    *Session
	expiration time.Time
}

// NewSessionCache creates a cache whose entries expire after ttl of inactivity.
// Expired sessions are closed when swept.
func NewSessionCache(ttl, sweepEvery time.Duration, onEvict func(*Session)) *SessionCache {
	cache := &SessionCache{
		data:    make(map[uuid.UUID]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(sweepEvery),
		done:    make(chan struct{}),
		onEvict: onEvict,
		now:     time.Now,
	}

	go cache.cleanupLoop()

	return cache
}

// Get returns a live session and extends its expiration
func (c *SessionCache) Get(id uuid.UUID) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[id]
	if !ok {
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiration) {
		return nil, false
	}
	entry.expiration = now.Add(c.ttl)

	return entry.session, true
}

// Set stores a session
func (c *SessionCache) Set(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[s.ID] = &cacheEntry{
		session:    s,
		expiration: c.now().Add(c.ttl),
	}
}

// Delete removes and returns a session
func (c *SessionCache) Delete(id uuid.UUID) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[id]
	if !ok {
		return nil, false
	}
	delete(c.data, id)
	return entry.session, true
}

// Size returns the number of entries in the cache
func (c *SessionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// cleanupLoop periodically removes expired entries
func (c *SessionCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.RemoveExpired()
		case <-c.done:
			return
		}
	}
}

// RemoveExpired evicts expired sessions and returns how many were removed
func (c *SessionCache) RemoveExpired() int {
	c.mu.Lock()
	now := c.now()
	var expired []*Session
	for id, entry := range c.data {
		if now.After(entry.expiration) {
			expired = append(expired, entry.session)
			delete(c.data, id)
		}
	}
	c.mu.Unlock()

	for _, s := range expired {
		s.Close()
		if c.onEvict != nil {
			c.onEvict(s)
		}
	}
	return len(expired)
}

// Stop stops the sweep goroutine and closes every remaining session
func (c *SessionCache) Stop() {
	c.stopped.Do(func() {
		c.cleanup.Stop()
		close(c.done)

		c.mu.Lock()
		sessions := make([]*Session, 0, len(c.data))
		for _, entry := range c.data {
			sessions = append(sessions, entry.session)
		}
		c.data = make(map[uuid.UUID]*cacheEntry)
		c.mu.Unlock()

		for _, s := range sessions {
			s.Close()
		}
	})
}
