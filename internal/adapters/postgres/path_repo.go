package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// SavedPathRepo implements ports.SavedPathRepository.
type SavedPathRepo struct {
	db *DB
}

func NewSavedPathRepo(db *DB) *SavedPathRepo {
	return &SavedPathRepo{db: db}
}

func (r *SavedPathRepo) Create(ctx context.Context, p *domain.SavedPath) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO saved_paths (name, encoded, point_count, total_km)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, p.Name, p.Encoded, p.PointCount, p.TotalKm).Scan(&p.ID, &p.CreatedAt)
}

func (r *SavedPathRepo) GetByID(ctx context.Context, id string) (*domain.SavedPath, error) {
	p := &domain.SavedPath{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, name, encoded, point_count, total_km, created_at
		FROM saved_paths WHERE id::text = $1
	`, id).Scan(&p.ID, &p.Name, &p.Encoded, &p.PointCount, &p.TotalKm, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get saved path: %w", err)
	}
	return p, nil
}

func (r *SavedPathRepo) List(ctx context.Context, offset, limit int) ([]domain.SavedPath, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM saved_paths`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count saved paths: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, name, encoded, point_count, total_km, created_at
		FROM saved_paths
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list saved paths: %w", err)
	}
	defer rows.Close()

	paths := []domain.SavedPath{}
	for rows.Next() {
		var p domain.SavedPath
		if err := rows.Scan(&p.ID, &p.Name, &p.Encoded, &p.PointCount, &p.TotalKm, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		paths = append(paths, p)
	}
	return paths, total, rows.Err()
}

func (r *SavedPathRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM saved_paths WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
