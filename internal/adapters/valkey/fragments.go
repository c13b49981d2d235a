package valkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

const fragmentPrefix = "fragment:"

// FragmentStore implements ports.FragmentStore on top of a Cache. Each
// session fragment is a single string key, so a replace is one SET.
type FragmentStore struct {
	cache *Cache
	ttl   int
}

// NewFragmentStore stores fragments that expire after ttlSeconds without
// a write. Zero keeps them forever.
func NewFragmentStore(cache *Cache, ttlSeconds int) *FragmentStore {
	return &FragmentStore{cache: cache, ttl: ttlSeconds}
}

// Load returns the session fragment, or "" when none is stored.
func (s *FragmentStore) Load(ctx context.Context, session string) (string, error) {
	b, err := s.cache.Get(ctx, fragmentPrefix+session)
	if valkey.IsValkeyNil(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("valkey get fragment: %w", err)
	}
	return string(b), nil
}

// Replace overwrites the session fragment and refreshes its expiry.
func (s *FragmentStore) Replace(ctx context.Context, session, fragment string) error {
	if err := s.cache.Set(ctx, fragmentPrefix+session, []byte(fragment), s.ttl); err != nil {
		return fmt.Errorf("valkey set fragment: %w", err)
	}
	return nil
}
