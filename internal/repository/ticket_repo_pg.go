package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkraemer/slotgrab/internal/domain"
)

type TicketRepository interface {
	// CreateStarted inserts a STARTED ticket for the booking. The partial
	// unique index on (booking_id) WHERE status='STARTED' makes this the
	// atomic no-concurrent-attempt guard: a second caller gets
	// domain.ErrAlreadyInProgress.
	CreateStarted(ctx context.Context, bookingID, userID int64) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus, reason string) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Ticket, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const uniqueViolation = "23505"

func (r *PGTicketRepository) CreateStarted(ctx context.Context, bookingID, userID int64) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO tickets (booking_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, booking_id, user_id, status, reason, created_at, updated_at`,
		bookingID, userID, domain.TicketStatusStarted)

	ticket, err := scanTicket(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("booking %d: %w", bookingID, domain.ErrAlreadyInProgress)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *PGTicketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus, reason string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `UPDATE tickets SET status=$1, reason=$2, updated_at=now()
		WHERE id=$3
		RETURNING id, booking_id, user_id, status, reason, created_at, updated_at`,
		status, reason, id)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, user_id, status, reason, created_at, updated_at
		FROM tickets WHERE id=$1`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *PGTicketRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, user_id, status, reason, created_at, updated_at
		FROM tickets WHERE booking_id=$1 ORDER BY created_at DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.BookingID, &t.UserID, &t.Status, &t.Reason, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.BookingID, &t.UserID, &t.Status, &t.Reason, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
