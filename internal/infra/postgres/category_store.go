package postgres

import (
	"context"
	"fmt"

	"trivia-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// CategoryStore serves the read-mostly category reference data. Rows are
// seeded from the upstream taxonomy via Upsert (see the seed command).
type CategoryStore struct {
	pool *pgxpool.Pool
}

func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

func (s *CategoryStore) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load categories: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("%w: scan category: %v", domain.ErrStorage, err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate categories: %v", domain.ErrStorage, err)
	}
	return categories, nil
}

// Upsert inserts or renames categories, keyed by their stable upstream id.
func (s *CategoryStore) Upsert(ctx context.Context, categories []domain.Category) error {
	for _, category := range categories {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO categories (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			category.ID, category.Name,
		)
		if err != nil {
			return fmt.Errorf("%w: upsert category %d: %v", domain.ErrStorage, category.ID, err)
		}
	}
	return nil
}
