package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// TripService owns trip creation and termination
type TripService struct {
	tripRepo *database.TripRepository
	userRepo *database.UserRepository
	logger   *logrus.Logger
}

// NewTripService creates a new trip service
func NewTripService(tripRepo *database.TripRepository, userRepo *database.UserRepository, logger *logrus.Logger) *TripService {
	return &TripService{
		tripRepo: tripRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// StartTrip creates an ACTIVE trip with expected end time now + duration
func (s *TripService) StartTrip(userID uuid.UUID, durationMinutes int, destination models.NullString) (*models.Trip, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	trip, err := s.tripRepo.CreateTrip(userID, durationMinutes, destination)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":          trip.ID,
		"user_id":          userID,
		"duration_minutes": durationMinutes,
	}).Info("Trip started")

	return trip, nil
}

// EndTrip transitions a trip to a terminal status. Unrecognized status tokens
// fall back to COMPLETED_SAFE with a warning. Ending an already-terminal trip
// is a no-op that returns the stored row.
func (s *TripService) EndTrip(tripID uuid.UUID, statusToken string) (*models.Trip, error) {
	status, recognized := models.ParseTerminalStatus(statusToken)
	if !recognized {
		s.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"token":   statusToken,
		}).Warn("Unrecognized end-trip status token, falling back to COMPLETED_SAFE")
	}

	ended, err := s.tripRepo.EndTrip(tripID, status)
	if err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetTripByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	if ended {
		s.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"status":  status,
		}).Info("Trip ended")
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID
func (s *TripService) GetTrip(tripID uuid.UUID) (*models.Trip, error) {
	trip, err := s.tripRepo.GetTripByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	return trip, nil
}

// GetTripPath retrieves a trip's location history in recording order
func (s *TripService) GetTripPath(tripID uuid.UUID) ([]*models.TripLocation, error) {
	trip, err := s.tripRepo.GetTripByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	return s.tripRepo.ListLocations(tripID)
}
