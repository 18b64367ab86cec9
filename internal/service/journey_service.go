package service

import (
	"context"
	"fmt"

	"github.com/voyago/tripcraft/internal/domain"
	"github.com/voyago/tripcraft/internal/repository"
)

// JourneyService handles journey CRUD operations
type JourneyService struct {
	journeyRepo *repository.JourneyRepository
}

// NewJourneyService creates a new journey service
func NewJourneyService(journeyRepo *repository.JourneyRepository) *JourneyService {
	return &JourneyService{journeyRepo: journeyRepo}
}

// CreateJourney creates a new journey
func (s *JourneyService) CreateJourney(ctx context.Context, req *domain.CreateJourneyRequest) (*domain.Journey, error) {
	if req.Destination == "" {
		return nil, fmt.Errorf("%w: destination is required", domain.ErrInvalidRequest)
	}
	if err := domain.ValidateDateRange(req.DepartureDate, req.ReturnDate); err != nil {
		return nil, fmt.Errorf("%w: departure and return must be valid dates with departure not after return", domain.ErrInvalidRequest)
	}

	journey := &domain.Journey{
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Activities:    req.Activities,
		Notes:         req.Notes,
	}
	if err := s.journeyRepo.Create(journey); err != nil {
		return nil, fmt.Errorf("creating journey: %w", err)
	}

	return journey, nil
}

// GetJourney retrieves a journey by ID
func (s *JourneyService) GetJourney(ctx context.Context, id string) (*domain.Journey, error) {
	journey, err := s.journeyRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if journey == nil {
		return nil, domain.ErrNotFound
	}
	return journey, nil
}

// ListJourneys retrieves all journeys
func (s *JourneyService) ListJourneys(ctx context.Context) ([]*domain.Journey, error) {
	return s.journeyRepo.List()
}

// UpdateJourney updates a journey with the non-empty fields of the request
func (s *JourneyService) UpdateJourney(ctx context.Context, id string, req *domain.UpdateJourneyRequest) (*domain.Journey, error) {
	journey, err := s.journeyRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if journey == nil {
		return nil, domain.ErrNotFound
	}

	if req.Destination != "" {
		journey.Destination = req.Destination
	}
	if req.DepartureDate != "" {
		journey.DepartureDate = req.DepartureDate
	}
	if req.ReturnDate != "" {
		journey.ReturnDate = req.ReturnDate
	}
	if req.Activities != "" {
		journey.Activities = req.Activities
	}
	if req.Notes != nil {
		journey.Notes = req.Notes
	}

	if err := domain.ValidateDateRange(journey.DepartureDate, journey.ReturnDate); err != nil {
		return nil, fmt.Errorf("%w: departure and return must be valid dates with departure not after return", domain.ErrInvalidRequest)
	}

	if err := s.journeyRepo.Update(journey); err != nil {
		return nil, fmt.Errorf("updating journey: %w", err)
	}

	return journey, nil
}

// DeleteJourney deletes a journey
func (s *JourneyService) DeleteJourney(ctx context.Context, id string) error {
	journey, err := s.journeyRepo.Get(id)
	if err != nil {
		return err
	}
	if journey == nil {
		return domain.ErrNotFound
	}
	return s.journeyRepo.Delete(id)
}
