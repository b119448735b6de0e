package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/models"
)

// TripRepository handles trip database operations
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{
		db: db,
	}
}

// CreateTrip inserts a new ACTIVE trip for a user
func (r *TripRepository) CreateTrip(userID uuid.UUID, durationMinutes int, destination models.NullString) (*models.Trip, error) {
	now := time.Now()
	trip := &models.Trip{
		ID:              uuid.New(),
		UserID:          userID,
		DurationMinutes: durationMinutes,
		Destination:     destination,
		ExpectedEndTime: now.Add(time.Duration(durationMinutes) * time.Minute),
		Status:          models.TripStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO trips (id, user_id, duration_minutes, destination, expected_end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		trip.ID,
		trip.UserID,
		trip.DurationMinutes,
		trip.Destination,
		trip.ExpectedEndTime,
		trip.Status,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	return trip, nil
}

// GetTripByID retrieves a trip by ID
func (r *TripRepository) GetTripByID(id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip

	query := `
		SELECT id, user_id, duration_minutes, destination, expected_end_time,
		       status, overdue_notified, ended_at, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	err := r.db.Get(&trip, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Trip not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get trip by ID: %w", err)
	}

	return &trip, nil
}

// EndTrip transitions an ACTIVE trip to the given terminal status. The
// update is conditional on the trip still being ACTIVE, so concurrent or
// repeated end calls cannot overwrite a terminal status. Returns false if
// the trip was not ACTIVE (already ended or absent).
func (r *TripRepository) EndTrip(id uuid.UUID, status models.TripStatus) (bool, error) {
	query := `
		UPDATE trips
		SET status = $1,
		    ended_at = $2,
		    updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.Exec(query, status, time.Now(), id, models.TripStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to end trip: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// AppendLocation adds a path-history sample to a trip
func (r *TripRepository) AppendLocation(tripID uuid.UUID, lat, lng float64, batteryLevel models.NullFloat64) error {
	query := `
		INSERT INTO trip_locations (trip_id, latitude, longitude, battery_level, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, tripID, lat, lng, batteryLevel, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append trip location: %w", err)
	}

	return nil
}

// ListLocations retrieves a trip's path history in recording order
func (r *TripRepository) ListLocations(tripID uuid.UUID) ([]*models.TripLocation, error) {
	var locations []*models.TripLocation

	query := `
		SELECT id, trip_id, latitude, longitude, battery_level, recorded_at
		FROM trip_locations
		WHERE trip_id = $1
		ORDER BY recorded_at ASC
	`

	err := r.db.Select(&locations, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip locations: %w", err)
	}

	return locations, nil
}

// ListOverdueActiveTrips retrieves ACTIVE trips past their expected end time
// that have not yet received an overdue reminder.
func (r *TripRepository) ListOverdueActiveTrips(limit int) ([]*models.Trip, error) {
	var trips []*models.Trip

	query := `
		SELECT id, user_id, duration_minutes, destination, expected_end_time,
		       status, overdue_notified, ended_at, created_at, updated_at
		FROM trips
		WHERE status = $1
		  AND expected_end_time < $2
		  AND overdue_notified = false
		ORDER BY expected_end_time ASC
		LIMIT $3
	`

	err := r.db.Select(&trips, query, models.TripStatusActive, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue trips: %w", err)
	}

	return trips, nil
}

// MarkOverdueNotified records that the overdue reminder for a trip was sent
func (r *TripRepository) MarkOverdueNotified(id uuid.UUID) error {
	query := `
		UPDATE trips
		SET overdue_notified = true,
		    updated_at = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark trip overdue notified: %w", err)
	}

	return nil
}
