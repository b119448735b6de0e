package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertType categorizes an alert audit record
type AlertType string

const (
	AlertTypePanic AlertType = "PANIC"
)

// Alert is an append-only audit record of an emergency event. Rows are never
// updated or deleted; the record exists independently of delivery outcome.
type Alert struct {
	ID        int64         `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	TripID    uuid.NullUUID `json:"trip_id,omitempty" db:"trip_id"`
	AlertType AlertType     `json:"alert_type" db:"alert_type"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
