package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkraemer/slotgrab/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	SetConfirmationCode(ctx context.Context, id int64, code string) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, venue_id, event_at, earliest_at, confirmation_code, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (reference, user_id, venue_id, event_at, earliest_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.UserID, booking.VenueID, booking.EventAt, booking.EarliestAcquisitionAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row, fmt.Sprintf("booking %d", id))
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
	return scanBooking(row, fmt.Sprintf("booking %s", reference))
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY event_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.VenueID, &b.EventAt, &b.EarliestAcquisitionAt,
			&b.ConfirmationCode, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SetConfirmationCode writes the code obtained from the external site. It is
// only called from the state machine's success path, so an existing code is
// never overwritten.
func (r *PGBookingRepository) SetConfirmationCode(ctx context.Context, id int64, code string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET confirmation_code=$1, updated_at=now()
		WHERE id=$2 AND confirmation_code IS NULL`, code, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("booking %d has no unconfirmed row: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanBooking(row pgx.Row, what string) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.VenueID, &b.EventAt, &b.EarliestAcquisitionAt,
		&b.ConfirmationCode, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
