package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewVenueRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewVenueRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewTicketRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTicketRepository(pool)
	assert.NotNil(t, repo)
}
