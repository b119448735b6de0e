package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a security-relevant event (login, PIN verification, panic)
type AuditLog struct {
	ID        int64         `json:"id" db:"id"`
	UserID    uuid.NullUUID `json:"user_id,omitempty" db:"user_id"`
	Action    string        `json:"action" db:"action"`
	IPAddress NullString    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent NullString    `json:"user_agent,omitempty" db:"user_agent"`
	Details   NullString    `json:"details,omitempty" db:"details"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
