// Package memory provides an in-process cache store backed by a bounded LRU.
package memory

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrMohammed1/Miran-Search/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultMaxEntries bounds the LRU when no size is configured.
const DefaultMaxEntries = 10000

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a db.Store kept in process memory. Entries carry their own
// expiry; the LRU bound caps memory.
type Store struct {
	cache  *expirable.LRU[string, entry]
	now    func() time.Time
	closed atomic.Bool
}

// NewStore creates a memory store holding at most maxEntries keys.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		// ttl 0: the LRU itself never expires entries, per-entry expiry is checked on read.
		cache: expirable.NewLRU[string, entry](maxEntries, nil, 0),
		now:   time.Now,
	}
}

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Get returns the value for key or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if e.expired(s.now()) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value for ttl. A non-positive ttl never expires.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// Del removes keys. Missing keys are ignored.
func (s *Store) Del(_ context.Context, keys ...string) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	for _, k := range keys {
		s.cache.Remove(k)
	}
	return nil
}

// Scan returns live keys matching a glob pattern.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpScan, Err: db.ErrClosed}
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("bad pattern %q: %w", pattern, err)}
	}

	now := s.now()
	var keys []string
	for _, k := range s.cache.Keys() {
		e, ok := s.cache.Peek(k)
		if !ok || e.expired(now) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close drops all entries and rejects further operations.
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cache.Purge()
	}
}

// WaitForReady returns immediately; the store is ready once constructed.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}
