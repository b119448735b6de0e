package models

import (
	"time"

	"github.com/google/uuid"
)

// GuardianStatus represents the lifecycle state of a guardian relationship
type GuardianStatus string

const (
	GuardianStatusPending  GuardianStatus = "PENDING"
	GuardianStatusAccepted GuardianStatus = "ACCEPTED"
	GuardianStatusRejected GuardianStatus = "REJECTED"
)

// IsDecision reports whether the status is a valid guardian-side response.
func (s GuardianStatus) IsDecision() bool {
	return s == GuardianStatusAccepted || s == GuardianStatusRejected
}

// MaxGuardiansPerUser is the cap on guardian relations per protector
const MaxGuardiansPerUser = 5

// Guardian represents an emergency-contact relationship. UserID is the
// protected user; GuardianPhone identifies the contact, who may or may not
// hold a registered account.
type Guardian struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	GuardianName  string         `json:"guardian_name" db:"guardian_name"`
	GuardianPhone string         `json:"guardian_phone" db:"guardian_phone"`
	Status        GuardianStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// ProtectedUser is the inverse-lookup projection: a guardian relation joined
// to the protector's profile, for the "people I protect" listing.
type ProtectedUser struct {
	GuardianID     uuid.UUID      `json:"guardian_id" db:"guardian_id"`
	Status         GuardianStatus `json:"status" db:"status"`
	ProtectorID    uuid.UUID      `json:"protector_id" db:"protector_id"`
	ProtectorName  NullString     `json:"protector_name,omitempty" db:"protector_name"`
	ProtectorPhone string         `json:"protector_phone" db:"protector_phone"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
