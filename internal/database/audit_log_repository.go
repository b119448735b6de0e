package database

import (
	"fmt"
	"time"

	"github.com/safetrek/safety-backend/internal/models"
)

// AuditLogRepository handles audit log database operations
type AuditLogRepository struct {
	db DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db DB) *AuditLogRepository {
	return &AuditLogRepository{
		db: db,
	}
}

// CreateEntry appends an audit log entry
func (r *AuditLogRepository) CreateEntry(entry *models.AuditLog) error {
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_logs (user_id, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(
		query,
		entry.UserID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	return nil
}
