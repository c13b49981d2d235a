package ports

import (
	"context"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFragmentChange(ctx context.Context, change *domain.FragmentChange) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Subscription is a live subscription that can be cancelled.
type Subscription interface {
	Unsubscribe() error
}

// SessionSubscriber delivers the raw change events of one session.
type SessionSubscriber interface {
	SubscribeSession(session string, handler func(data []byte)) (Subscription, error)
}
