// Package store keeps the portal's single copy of each backend list.
// Mutations invalidate entries instead of patching them, so every list a
// user sees was fetched from the backend after the last change to it.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads a full list from the backend.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type entry[T any] struct {
	items     []T
	fetchedAt time.Time
}

// ListStore caches lists by key (for example "bills:admin" or
// "bills:tenant:42"). Concurrent misses on one key share a single fetch.
type ListStore[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	gen     map[string]uint64
	ttl     time.Duration
	now     func() time.Time
	sf      singleflight.Group
}

// New returns a store whose entries expire after ttl. A ttl of zero keeps
// entries until they are invalidated.
func New[T any](ttl time.Duration) *ListStore[T] {
	return &ListStore[T]{
		entries: make(map[string]entry[T]),
		gen:     make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached list for key, fetching it when missing or stale.
// The fetch runs detached from ctx so that one caller going away does not
// fail the others waiting on it; the caller itself stops waiting when ctx
// is done. A fetch that finishes after the key was invalidated is handed
// to its waiters but not cached.
func (s *ListStore[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) ([]T, error) {
	if items, ok := s.cached(key); ok {
		return items, nil
	}

	ch := s.sf.DoChan(key, func() (any, error) {
		gen := s.generation(key)
		items, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.put(key, gen, items)
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]T)), nil
	}
}

// Refresh drops key and fetches it again.
func (s *ListStore[T]) Refresh(ctx context.Context, key string, fetch FetchFunc[T]) ([]T, error) {
	s.Invalidate(key)
	return s.Get(ctx, key, fetch)
}

// Invalidate drops every entry whose key starts with prefix. In-flight
// fetches for those keys will not be cached when they land.
func (s *ListStore[T]) Invalidate(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	// Bumping the generation keeps in-flight fetches from being cached, and
	// Forget stops singleflight from handing their result to new callers.
	for k := range s.gen {
		if strings.HasPrefix(k, prefix) {
			s.gen[k]++
			s.sf.Forget(k)
		}
	}
}

func (s *ListStore[T]) cached(key string) ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(e.fetchedAt) > s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return clone(e.items), true
}

func (s *ListStore[T]) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gen[key]; !ok {
		s.gen[key] = 0
	}
	return s.gen[key]
}

func (s *ListStore[T]) put(key string, gen uint64, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[key] != gen {
		return
	}
	s.entries[key] = entry[T]{items: clone(items), fetchedAt: s.now()}
}

func clone[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
