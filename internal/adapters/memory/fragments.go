// Package memory holds in-process fallbacks used when Valkey is not
// reachable. State is lost on restart and not shared between replicas.
package memory

import (
	"context"
	"strings"
	"sync"
)

// FragmentStore implements ports.FragmentStore in memory.
type FragmentStore struct {
	mu        sync.RWMutex
	fragments map[string]string
}

// NewFragmentStore creates an empty store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{fragments: make(map[string]string)}
}

func (s *FragmentStore) Load(ctx context.Context, session string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fragments[session], nil
}

// Replace stores fragment under its own copy of session. Callers may pass
// strings that alias a request buffer.
func (s *FragmentStore) Replace(ctx context.Context, session, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fragment == "" {
		delete(s.fragments, session)
		return nil
	}
	s.fragments[strings.Clone(session)] = strings.Clone(fragment)
	return nil
}

// Len returns the number of stored sessions.
func (s *FragmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments)
}
