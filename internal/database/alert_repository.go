package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/models"
)

// AlertRepository handles alert database operations. Alerts are append-only;
// there is deliberately no update or delete.
type AlertRepository struct {
	db DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db DB) *AlertRepository {
	return &AlertRepository{
		db: db,
	}
}

// CreateAlert appends an alert audit record
func (r *AlertRepository) CreateAlert(userID uuid.UUID, tripID uuid.NullUUID, alertType models.AlertType) (*models.Alert, error) {
	alert := &models.Alert{
		UserID:    userID,
		TripID:    tripID,
		AlertType: alertType,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO alerts (user_id, trip_id, alert_type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(query, alert.UserID, alert.TripID, alert.AlertType, alert.CreatedAt).Scan(&alert.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	return alert, nil
}

// ListByUser retrieves a user's alerts, newest first
func (r *AlertRepository) ListByUser(userID uuid.UUID) ([]*models.Alert, error) {
	var alerts []*models.Alert

	query := `
		SELECT id, user_id, trip_id, alert_type, created_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&alerts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, nil
}
