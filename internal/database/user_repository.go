package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safetrek/safety-backend/internal/models"
)

const userColumns = `id, phone, email, full_name, password_hash, safe_pin_hash,
	       duress_pin_hash, fcm_token, last_latitude, last_longitude,
	       created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser inserts a new user with the given credential hashes
func (r *UserRepository) CreateUser(phone string, email, fullName models.NullString, passwordHash, safePinHash, duressPinHash string) (*models.User, error) {
	user := &models.User{
		ID:            uuid.New(),
		Phone:         phone,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  models.NewNullString(passwordHash),
		SafePinHash:   models.NewNullString(safePinHash),
		DuressPinHash: models.NewNullString(duressPinHash),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	query := `
		INSERT INTO users (
			id, phone, email, full_name,
			password_hash, safe_pin_hash, duress_pin_hash,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Phone,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.SafePinHash,
		user.DuressPinHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByPhone retrieves a user by phone number
func (r *UserRepository) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE phone = $1
	`

	err := r.db.Get(&user, query, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByIdentity retrieves a user by phone number or email
func (r *UserRepository) GetUserByIdentity(identity string) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE phone = $1 OR email = $1
	`

	err := r.db.Get(&user, query, identity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by identity: %w", err)
	}

	return &user, nil
}

// GetUsersByPhones retrieves all registered users whose phone number is in
// the given set. Used as the directory lookup for escalation fan-out.
func (r *UserRepository) GetUsersByPhones(phones []string) ([]*models.User, error) {
	if len(phones) == 0 {
		return nil, nil
	}

	var users []*models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE phone = ANY($1)
	`

	err := r.db.Select(&users, query, pq.Array(phones))
	if err != nil {
		return nil, fmt.Errorf("failed to get users by phones: %w", err)
	}

	return users, nil
}

// UpdateProfile updates the user's full name and email
func (r *UserRepository) UpdateProfile(id uuid.UUID, fullName, email models.NullString) error {
	query := `
		UPDATE users
		SET full_name = $1,
		    email = $2,
		    updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, fullName, email, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdatePinHashes replaces both PIN hashes for a user
func (r *UserRepository) UpdatePinHashes(id uuid.UUID, safePinHash, duressPinHash string) error {
	query := `
		UPDATE users
		SET safe_pin_hash = $1,
		    duress_pin_hash = $2,
		    updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, safePinHash, duressPinHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update pin hashes: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateFCMToken stores the user's current push token
func (r *UserRepository) UpdateFCMToken(id uuid.UUID, token string) error {
	query := `
		UPDATE users
		SET fcm_token = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, token, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateLastLocation stores the user's last known location
func (r *UserRepository) UpdateLastLocation(id uuid.UUID, lat, lng float64) error {
	query := `
		UPDATE users
		SET last_latitude = $1,
		    last_longitude = $2,
		    updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.Exec(query, lat, lng, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last location: %w", err)
	}

	return nil
}
