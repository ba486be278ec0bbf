package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkraemer/slotgrab/internal/domain"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *domain.Venue) error
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	List(ctx context.Context) ([]domain.Venue, error)
	Update(ctx context.Context, venue *domain.Venue) error
}

type PGVenueRepository struct {
	db *pgxpool.Pool
}

func NewVenueRepository(db *pgxpool.Pool) VenueRepository {
	return &PGVenueRepository{db: db}
}

func (r *PGVenueRepository) Create(ctx context.Context, venue *domain.Venue) error {
	return r.db.QueryRow(ctx, `INSERT INTO venues (name, base_url, venue_type, timezone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		venue.Name, venue.BaseURL, venue.Type, venue.Timezone).
		Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)
}

func (r *PGVenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, base_url, venue_type, timezone, created_at, updated_at
		FROM venues WHERE id=$1`, id)
	var v domain.Venue
	if err := row.Scan(&v.ID, &v.Name, &v.BaseURL, &v.Type, &v.Timezone, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venue %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGVenueRepository) List(ctx context.Context) ([]domain.Venue, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, base_url, venue_type, timezone, created_at, updated_at
		FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.BaseURL, &v.Type, &v.Timezone, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (r *PGVenueRepository) Update(ctx context.Context, venue *domain.Venue) error {
	cmd, err := r.db.Exec(ctx, `UPDATE venues SET name=$1, base_url=$2, venue_type=$3, timezone=$4, updated_at=now()
		WHERE id=$5`,
		venue.Name, venue.BaseURL, venue.Type, venue.Timezone, venue.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("venue %d: %w", venue.ID, domain.ErrNotFound)
	}
	return nil
}

var _ VenueRepository = (*PGVenueRepository)(nil)
