package ports

import (
	"context"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// SavedPathRepository persists named measurements.
type SavedPathRepository interface {
	Create(ctx context.Context, p *domain.SavedPath) error
	GetByID(ctx context.Context, id string) (*domain.SavedPath, error)
	List(ctx context.Context, offset, limit int) ([]domain.SavedPath, int, error)
	Delete(ctx context.Context, id string) error
}

// FragmentStore holds one fragment text per session. Load returns "" for
// an unknown session. Replace swaps the whole text in one step.
type FragmentStore interface {
	Load(ctx context.Context, session string) (string, error)
	Replace(ctx context.Context, session, fragment string) error
}
