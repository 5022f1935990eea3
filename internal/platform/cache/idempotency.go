package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Response is a recorded HTTP outcome for an idempotency key.
type Response struct {
	Status int
	Body   []byte
}

// IdempotencyStore remembers the first response produced for a mutating
// request key so replays return the recorded outcome instead of running the
// operation again.
type IdempotencyStore struct {
	entries *gocache.Cache
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		entries: gocache.New(ttl, 2*ttl),
	}
}

// Get returns the recorded response for a key, if any.
func (s *IdempotencyStore) Get(key string) (Response, bool) {
	raw, found := s.entries.Get(key)
	if !found {
		return Response{}, false
	}
	resp, ok := raw.(Response)
	return resp, ok
}

// Put records a response under a key. First write wins.
func (s *IdempotencyStore) Put(key string, resp Response) {
	_ = s.entries.Add(key, resp, gocache.DefaultExpiration)
}
