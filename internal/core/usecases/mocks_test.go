package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// --- Mock FragmentStore ---

type mockFragmentStore struct {
	mu        sync.Mutex
	fragments map[string]string
	replaces  int
	loadErr   error
}

func newMockFragmentStore(initial map[string]string) *mockFragmentStore {
	m := &mockFragmentStore{fragments: make(map[string]string)}
	for k, v := range initial {
		m.fragments[k] = v
	}
	return m
}

func (m *mockFragmentStore) Load(ctx context.Context, session string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.fragments[session], nil
}

func (m *mockFragmentStore) Replace(ctx context.Context, session, fragment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments[session] = fragment
	m.replaces++
	return nil
}

func (m *mockFragmentStore) get(session string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fragments[session]
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu      sync.Mutex
	changes []domain.FragmentChange
	err     error
}

func (m *mockPublisher) PublishFragmentChange(ctx context.Context, change *domain.FragmentChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.changes = append(m.changes, *change)
	return nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- Mock SavedPathRepository ---

type mockSavedPathRepo struct {
	createFn  func(ctx context.Context, p *domain.SavedPath) error
	getByIDFn func(ctx context.Context, id string) (*domain.SavedPath, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.SavedPath, int, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockSavedPathRepo) Create(ctx context.Context, p *domain.SavedPath) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockSavedPathRepo) GetByID(ctx context.Context, id string) (*domain.SavedPath, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSavedPathRepo) List(ctx context.Context, offset, limit int) ([]domain.SavedPath, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockSavedPathRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}
