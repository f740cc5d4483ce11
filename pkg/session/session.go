// Package session holds analyses uploaded through the HTTP API.
//
// Every upload gets a [Session] with a random UUIDv4 id. Sessions live in a
// bounded LRU that also expires entries after a fixed TTL, so a long-running
// server keeps at most MaxSessions analyses in memory.
//
// # Usage
//
//	store := session.NewStore(session.Config{})
//	sess := store.Create(analysis, "manifest.json")
//
//	sess, err := store.Get(id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown, malformed or expired id
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/matzehuels/productlens/pkg/observability"
	"github.com/matzehuels/productlens/pkg/pipeline"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Default limits.
const (
	// DefaultTTL is how long an analysis stays available after upload.
	DefaultTTL = time.Hour

	// DefaultMaxSessions bounds the number of analyses held in memory.
	DefaultMaxSessions = 64
)

// Session is one uploaded analysis.
type Session struct {
	ID        string             `json:"id"`
	Source    string             `json:"source,omitempty"`
	Analysis  *pipeline.Analysis `json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Config bounds a Store. Zero values use the defaults.
type Config struct {
	TTL         time.Duration
	MaxSessions int
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
}

// Store is an expiring, size-bounded session store. It is safe for
// concurrent use.
type Store struct {
	lru *expirable.LRU[string, *Session]
	ttl time.Duration
}

// NewStore creates a store. Evicted and expired sessions are reported to
// [observability.ServerHooks.OnSessionEvicted].
func NewStore(cfg Config) *Store {
	cfg.SetDefaults()
	onEvict := func(id string, _ *Session) {
		observability.Server().OnSessionEvicted(context.Background(), id)
	}
	return &Store{
		lru: expirable.NewLRU[string, *Session](cfg.MaxSessions, onEvict, cfg.TTL),
		ttl: cfg.TTL,
	}
}

// Create stores a under a new random id.
func (s *Store) Create(a *pipeline.Analysis, source string) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Source:    source,
		Analysis:  a,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.lru.Add(sess.ID, sess)
	return sess
}

// Get returns the session with the given id. Ids that are not UUIDs are
// rejected without a lookup.
func (s *Store) Get(id string) (*Session, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	sess, ok := s.lru.Get(id)
	if !ok || sess.IsExpired() {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	return s.lru.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.lru.Len()
}

// Purge removes every session.
func (s *Store) Purge() {
	s.lru.Purge()
}
