package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlexNa-Holdings/memestake/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const DefaultSize = 512

// parallel fetches per Refresh
const fetchLimit = 8

// Query is one chain read. Owner is zero for reads not tied to an account.
type Query struct {
	Key   string
	Owner common.Address
	Fetch func(ctx context.Context) (any, error)
}

// Entry is the last known result of a query. Known is false until the
// first successful fetch, which is not the same as a zero value.
type Entry struct {
	Value     any
	Known     bool
	Stale     bool
	Err       error
	FetchedAt time.Time
}

type record struct {
	key    string
	owner  common.Address
	entry  Entry
	issued uint64 // last sequence handed to a fetch
	landed uint64 // sequence of the fetch that produced entry
}

type Store struct {
	mu  sync.Mutex
	lru *lru.Cache[uint64, *record]
	now func() time.Time
}

func New(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[uint64, *record](size)
	if err != nil {
		return nil, err
	}
	return &Store{lru: c, now: time.Now}, nil
}

func hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func (s *Store) Get(key string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.lru.Get(hash(key)); ok && r.key == key {
		return r.entry
	}
	return Entry{}
}

func (s *Store) Len() int {
	return s.lru.Len()
}

// begin reserves a sequence number for a fetch of q.
func (s *Store) begin(q Query) (*record, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := hash(q.Key)
	r, ok := s.lru.Get(h)
	if !ok || r.key != q.Key {
		r = &record{key: q.Key, owner: q.Owner}
		s.lru.Add(h, r)
	}
	r.issued++
	return r, r.issued
}

// land stores a fetch result unless a newer one already landed or the
// record was dropped meanwhile. It reports whether the result was kept.
func (s *Store) land(r *record, seq uint64, v any, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.lru.Peek(hash(r.key)); !ok || cur != r {
		return false
	}
	if seq <= r.landed {
		return false
	}
	r.landed = seq

	if err != nil {
		r.entry.Err = err
		return true
	}
	r.entry = Entry{Value: v, Known: true, FetchedAt: s.now()}
	return true
}

// Refresh runs the queries in parallel. A failed query keeps its previous
// value and records the error; the joined errors are returned.
func (s *Store) Refresh(ctx context.Context, qs ...Query) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(fetchLimit)

	for _, q := range qs {
		q := q
		if q.Fetch == nil {
			continue
		}
		r, seq := s.begin(q)
		g.Go(func() error {
			v, err := q.Fetch(ctx)
			kept := s.land(r, seq, v, err)

			switch {
			case !kept:
				metrics.ObserveFetch("stale")
				log.Trace().Str("key", q.Key).Uint64("seq", seq).Msg("cache: dropped stale result")
			case err != nil:
				metrics.ObserveFetch("error")
				log.Debug().Err(err).Str("key", q.Key).Msg("cache: fetch failed")
			default:
				metrics.ObserveFetch("ok")
			}

			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()
	return errors.Join(errs...)
}

func (s *Store) Invalidate(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if r, ok := s.lru.Peek(hash(k)); ok && r.key == k {
			r.entry.Stale = true
		}
	}
}

// ClearOwner drops every entry read for the account.
func (s *Store) ClearOwner(owner common.Address) {
	if owner == (common.Address{}) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.lru.Keys() {
		if r, ok := s.lru.Peek(h); ok && r.owner == owner {
			s.lru.Remove(h)
		}
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Purge()
}
