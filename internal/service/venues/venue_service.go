package venues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/nkraemer/slotgrab/internal/eligibility"
	"github.com/nkraemer/slotgrab/internal/repository"
)

type VenueUseCase interface {
	Create(ctx context.Context, input VenueInput) (*domain.Venue, error)
	Update(ctx context.Context, id int64, input VenueInput) (*domain.Venue, error)
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	List(ctx context.Context) ([]domain.Venue, error)
}

type Cache interface {
	GetVenues(ctx context.Context) ([]domain.Venue, error)
	SetVenues(ctx context.Context, venues []domain.Venue) error
	InvalidateVenues(ctx context.Context) error
}

type VenueInput struct {
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Type     string `json:"venue_type"`
	Timezone string `json:"timezone"`
}

type VenueService struct {
	repo  repository.VenueRepository
	cache Cache
}

func NewVenueService(repo repository.VenueRepository, cache Cache) *VenueService {
	return &VenueService{repo: repo, cache: cache}
}

func (s *VenueService) Create(ctx context.Context, input VenueInput) (*domain.Venue, error) {
	venue, err := venueFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateVenues(ctx)
	}
	return venue, nil
}

// Update is the only way a venue's type or timezone changes after creation.
func (s *VenueService) Update(ctx context.Context, id int64, input VenueInput) (*domain.Venue, error) {
	venue, err := venueFromInput(input)
	if err != nil {
		return nil, err
	}
	venue.ID = id
	if err := s.repo.Update(ctx, venue); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateVenues(ctx)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *VenueService) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VenueService) List(ctx context.Context) ([]domain.Venue, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetVenues(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetVenues(ctx, venues)
	}
	return venues, nil
}

func venueFromInput(input VenueInput) (*domain.Venue, error) {
	if input.Name == "" {
		return nil, errors.New("venue name is required")
	}
	if input.BaseURL == "" {
		return nil, errors.New("venue url is required")
	}

	venueType := domain.VenueType(input.Type)
	// Reject unknown types here, while the venue is being configured, with
	// the same policy check the eligibility rule applies later.
	if _, err := eligibility.LeadTime(venueType); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(input.Timezone); err != nil {
		return nil, fmt.Errorf("invalid venue timezone %q: %w", input.Timezone, err)
	}

	return &domain.Venue{
		Name:     input.Name,
		BaseURL:  input.BaseURL,
		Type:     venueType,
		Timezone: input.Timezone,
	}, nil
}

var _ VenueUseCase = (*VenueService)(nil)
