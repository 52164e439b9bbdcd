package repository

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/liliang-cn/pdfinsight/internal/service"
)

// SessionRepository keeps one controller per browser session in memory.
// Entries expire after ttl of inactivity.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Save stores a controller under its id
func (r *SessionRepository) Save(c *service.Controller) {
	r.cache.Set(c.ID(), c, cache.DefaultExpiration)
}

// Get returns the controller for id and refreshes its expiry
func (r *SessionRepository) Get(id string) (*service.Controller, bool) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	c := x.(*service.Controller)
	r.cache.Set(id, c, cache.DefaultExpiration)
	return c, true
}

// Delete removes the controller for id
func (r *SessionRepository) Delete(id string) {
	r.cache.Delete(id)
}

// Count returns the number of stored sessions, including expired ones not yet purged
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// OnEvicted registers fn to run when a session expires or is deleted
func (r *SessionRepository) OnEvicted(fn func(id string)) {
	r.cache.OnEvicted(func(id string, _ interface{}) { fn(id) })
}
