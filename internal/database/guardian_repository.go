package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safetrek/safety-backend/internal/models"
)

var (
	// ErrGuardianCapReached indicates the protector already has the maximum
	// number of guardian relations
	ErrGuardianCapReached = errors.New("guardian limit reached")

	// ErrDuplicateGuardian indicates a relation for this (protector, phone)
	// pair already exists
	ErrDuplicateGuardian = errors.New("guardian already exists for this phone")
)

// GuardianRepository handles guardian relationship database operations
type GuardianRepository struct {
	db DB
}

// NewGuardianRepository creates a new guardian repository
func NewGuardianRepository(db DB) *GuardianRepository {
	return &GuardianRepository{
		db: db,
	}
}

// CountByUser returns the number of guardian relations owned by a protector
func (r *GuardianRepository) CountByUser(userID uuid.UUID) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM guardians WHERE user_id = $1`

	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count guardians: %w", err)
	}

	return count, nil
}

// CreateGuardian inserts a new PENDING guardian relation. The insert is
// guarded by a count subquery so concurrent adds for the same protector
// cannot exceed the cap; a zero-row insert means the cap was hit.
func (r *GuardianRepository) CreateGuardian(userID uuid.UUID, name, phone string) (*models.Guardian, error) {
	guardian := &models.Guardian{
		ID:            uuid.New(),
		UserID:        userID,
		GuardianName:  name,
		GuardianPhone: phone,
		Status:        models.GuardianStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	query := `
		INSERT INTO guardians (id, user_id, guardian_name, guardian_phone, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE (SELECT COUNT(*) FROM guardians WHERE user_id = $2) < $8
	`

	result, err := r.db.Exec(
		query,
		guardian.ID,
		guardian.UserID,
		guardian.GuardianName,
		guardian.GuardianPhone,
		guardian.Status,
		guardian.CreatedAt,
		guardian.UpdatedAt,
		models.MaxGuardiansPerUser,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicateGuardian
		}
		return nil, fmt.Errorf("failed to create guardian: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrGuardianCapReached
	}

	return guardian, nil
}

// GetGuardianByID retrieves a guardian relation by ID
func (r *GuardianRepository) GetGuardianByID(id uuid.UUID) (*models.Guardian, error) {
	var guardian models.Guardian

	query := `
		SELECT id, user_id, guardian_name, guardian_phone, status, created_at, updated_at
		FROM guardians
		WHERE id = $1
	`

	err := r.db.Get(&guardian, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Guardian not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get guardian by ID: %w", err)
	}

	return &guardian, nil
}

// UpdateStatus writes the given status on a guardian relation. Returns false
// if no relation with the ID exists. Writing the same status twice is a no-op
// at the caller level, not an error.
func (r *GuardianRepository) UpdateStatus(id uuid.UUID, status models.GuardianStatus) (bool, error) {
	query := `
		UPDATE guardians
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update guardian status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// DeleteGuardian removes a guardian relation. Returns false if no relation
// with the ID exists.
func (r *GuardianRepository) DeleteGuardian(id uuid.UUID) (bool, error) {
	query := `DELETE FROM guardians WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete guardian: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListByUser retrieves a protector's guardian relations, newest first
func (r *GuardianRepository) ListByUser(userID uuid.UUID) ([]*models.Guardian, error) {
	var guardians []*models.Guardian

	query := `
		SELECT id, user_id, guardian_name, guardian_phone, status, created_at, updated_at
		FROM guardians
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&guardians, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guardians: %w", err)
	}

	return guardians, nil
}

// ListByUserAndStatus retrieves a protector's guardian relations filtered by status
func (r *GuardianRepository) ListByUserAndStatus(userID uuid.UUID, status models.GuardianStatus) ([]*models.Guardian, error) {
	var guardians []*models.Guardian

	query := `
		SELECT id, user_id, guardian_name, guardian_phone, status, created_at, updated_at
		FROM guardians
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	err := r.db.Select(&guardians, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list guardians by status: %w", err)
	}

	return guardians, nil
}

// ListProtectedUsers performs the inverse lookup: relations whose guardian
// phone matches the caller's, joined to the protector's profile.
func (r *GuardianRepository) ListProtectedUsers(guardianPhone string) ([]*models.ProtectedUser, error) {
	var protected []*models.ProtectedUser

	query := `
		SELECT g.id AS guardian_id,
		       g.status,
		       u.id AS protector_id,
		       u.full_name AS protector_name,
		       u.phone AS protector_phone,
		       g.created_at
		FROM guardians g
		JOIN users u ON u.id = g.user_id
		WHERE g.guardian_phone = $1
		ORDER BY g.created_at DESC
	`

	err := r.db.Select(&protected, query, guardianPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to list protected users: %w", err)
	}

	return protected, nil
}

// GetStatusesByIDs returns the current status of each guardian relation in
// the given set. Missing IDs (deleted relations) are simply absent from the
// result map.
func (r *GuardianRepository) GetStatusesByIDs(ids []uuid.UUID) (map[uuid.UUID]models.GuardianStatus, error) {
	statuses := make(map[uuid.UUID]models.GuardianStatus)
	if len(ids) == 0 {
		return statuses, nil
	}

	query := `
		SELECT id, status
		FROM guardians
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var status models.GuardianStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("failed to scan guardian status: %w", err)
		}
		statuses[id] = status
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read guardian statuses: %w", err)
	}

	return statuses, nil
}
