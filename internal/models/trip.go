package models

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the lifecycle state of a tracked trip
type TripStatus string

const (
	TripStatusActive        TripStatus = "ACTIVE"
	TripStatusCompletedSafe TripStatus = "COMPLETED_SAFE"
	TripStatusDuressEnded   TripStatus = "DURESS_ENDED"
)

// IsTerminal reports whether the status ends the trip lifecycle.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompletedSafe || s == TripStatusDuressEnded
}

// ParseTerminalStatus maps a client-supplied status token to a terminal trip
// status. Unrecognized tokens fall back to COMPLETED_SAFE; callers log the
// fallback so it is visible in the field.
func ParseTerminalStatus(token string) (TripStatus, bool) {
	switch TripStatus(token) {
	case TripStatusCompletedSafe:
		return TripStatusCompletedSafe, true
	case TripStatusDuressEnded:
		return TripStatusDuressEnded, true
	default:
		return TripStatusCompletedSafe, false
	}
}

// Trip represents a timed trip being tracked for a user
type Trip struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Destination     NullString `json:"destination,omitempty" db:"destination"`
	ExpectedEndTime time.Time  `json:"expected_end_time" db:"expected_end_time"`
	Status          TripStatus `json:"status" db:"status"`
	OverdueNotified bool       `json:"-" db:"overdue_notified"`
	EndedAt         NullTime   `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// TripLocation is a single path-history sample appended during a trip
type TripLocation struct {
	ID           int64       `json:"id" db:"id"`
	TripID       uuid.UUID   `json:"trip_id" db:"trip_id"`
	Latitude     float64     `json:"latitude" db:"latitude"`
	Longitude    float64     `json:"longitude" db:"longitude"`
	BatteryLevel NullFloat64 `json:"battery_level,omitempty" db:"battery_level"`
	RecordedAt   time.Time   `json:"recorded_at" db:"recorded_at"`
}
