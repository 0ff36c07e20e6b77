package repository

import (
	"context"
	"database/sql"
	"errors"
)

// VenueRepo answers lookups against the venues table.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// Exists reports whether a venue with the id is present. It returns
// ErrVenueNotFound when it is not, so callers can propagate it directly.
func (r *VenueRepo) Exists(ctx context.Context, id uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM venues WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVenueNotFound
	}
	return err
}
