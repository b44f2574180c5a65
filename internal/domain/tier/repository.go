package tier

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository loads the configured tier list
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new tier repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all configured tiers ordered by threshold
func (r *Repository) List(ctx context.Context) ([]Tier, error) {
	var tiers []Tier
	err := r.db.SelectContext(ctx, &tiers, `
		SELECT level, name, min_points, bonus_multiplier
		FROM tiers
		ORDER BY min_points
	`)
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
