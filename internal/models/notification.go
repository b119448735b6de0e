package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes an inbox entry
type NotificationType string

const (
	NotificationTypeGuardianRequest NotificationType = "GUARDIAN_REQUEST"
	NotificationTypeEmergency       NotificationType = "EMERGENCY"
	NotificationTypeNormalMessage   NotificationType = "NORMAL_MESSAGE"
)

// Notification is a per-user inbox entry. Data carries a JSON payload whose
// shape depends on Type: GUARDIAN_REQUEST rows decode to GuardianRequestData,
// EMERGENCY rows decode to EmergencyData, NORMAL_MESSAGE rows carry no payload.
// Rows are immutable except for the read flag, which the bulk mark-read flips.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Type      NotificationType `json:"type" db:"type"`
	Data      NullString       `json:"data,omitempty" db:"data"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// GuardianRequestData is the payload contract for GUARDIAN_REQUEST entries
type GuardianRequestData struct {
	GuardianID uuid.UUID `json:"guardian_id"`
}

// EmergencyData is the payload contract for EMERGENCY entries
type EmergencyData struct {
	Latitude     float64    `json:"lat"`
	Longitude    float64    `json:"lng"`
	TripID       *uuid.UUID `json:"trip_id,omitempty"`
	BatteryLevel *float64   `json:"battery_level,omitempty"`
}

// DecodeGuardianRequest decodes the payload of a GUARDIAN_REQUEST entry.
func (n *Notification) DecodeGuardianRequest() (*GuardianRequestData, error) {
	var data GuardianRequestData
	if err := json.Unmarshal([]byte(n.Data.String), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// NotificationView is an inbox entry enriched at read time. For
// GUARDIAN_REQUEST entries CurrentGuardianStatus reflects the guardian
// relation's status as of the fetch, not as of notification creation.
type NotificationView struct {
	Notification
	CurrentGuardianStatus *GuardianStatus `json:"current_guardian_status,omitempty"`
}
