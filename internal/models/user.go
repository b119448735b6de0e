package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NewNullString returns a valid NullString for a non-empty value.
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// NullFloat64 wraps sql.NullFloat64 to provide proper JSON marshaling
type NullFloat64 struct {
	sql.NullFloat64
}

// MarshalJSON implements json.Marshaler
func (nf NullFloat64) MarshalJSON() ([]byte, error) {
	if nf.Valid {
		return json.Marshal(nf.Float64)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nf *NullFloat64) UnmarshalJSON(data []byte) error {
	var f *float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != nil {
		nf.Valid = true
		nf.Float64 = *f
	} else {
		nf.Valid = false
	}
	return nil
}

// User represents a registered account. Password and PIN hashes are never
// exposed in JSON responses.
type User struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	Phone         string      `json:"phone" db:"phone"`
	Email         NullString  `json:"email,omitempty" db:"email"`
	FullName      NullString  `json:"full_name,omitempty" db:"full_name"`
	PasswordHash  NullString  `json:"-" db:"password_hash"`
	SafePinHash   NullString  `json:"-" db:"safe_pin_hash"`
	DuressPinHash NullString  `json:"-" db:"duress_pin_hash"`
	FCMToken      NullString  `json:"-" db:"fcm_token"`
	LastLatitude  NullFloat64 `json:"last_latitude,omitempty" db:"last_latitude"`
	LastLongitude NullFloat64 `json:"last_longitude,omitempty" db:"last_longitude"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Profile is the client-facing projection of a user account.
type Profile struct {
	ID       uuid.UUID  `json:"id"`
	Phone    string     `json:"phone"`
	Email    NullString `json:"email,omitempty"`
	FullName NullString `json:"full_name,omitempty"`
}

// Profile returns the safe projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Phone:    u.Phone,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// DisplayName returns the user's name, or a generic fallback for push copy.
func (u *User) DisplayName() string {
	if u.FullName.Valid && u.FullName.String != "" {
		return u.FullName.String
	}
	return "Someone"
}
