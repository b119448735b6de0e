package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// AuditService records security-relevant events. Logging failures are
// reported but never propagated; an audit miss must not fail the request.
type AuditService struct {
	auditRepo *database.AuditLogRepository
	logger    *logrus.Logger
	enabled   bool
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *database.AuditLogRepository, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
		enabled:   enabled,
	}
}

// LogLogin records a login attempt
func (s *AuditService) LogLogin(userID *uuid.UUID, identity, ipAddress, userAgent string, success bool) {
	s.logEvent(userID, "login", ipAddress, userAgent, map[string]interface{}{
		"identity": identity,
		"success":  success,
	})
}

// LogPinVerification records a PIN classification. The stored outcome only
// distinguishes valid from invalid; DURESS is deliberately not recorded in a
// field an attacker inspecting a synced device could read.
func (s *AuditService) LogPinVerification(userID uuid.UUID, ipAddress, userAgent string, valid bool) {
	s.logEvent(&userID, "pin_verify", ipAddress, userAgent, map[string]interface{}{
		"valid": valid,
	})
}

// LogPanic records a panic trigger and its delivery counts
func (s *AuditService) LogPanic(userID uuid.UUID, ipAddress, userAgent string, notified, failed int) {
	s.logEvent(&userID, "panic_trigger", ipAddress, userAgent, map[string]interface{}{
		"notified": notified,
		"failed":   failed,
	})
}

func (s *AuditService) logEvent(userID *uuid.UUID, action, ipAddress, userAgent string, details map[string]interface{}) {
	if !s.enabled {
		return
	}

	details["device_info"] = utils.ParseUserAgent(userAgent)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("Failed to marshal audit details")
		detailsJSON = []byte("{}")
	}

	entry := &models.AuditLog{
		Action:    action,
		IPAddress: models.NewNullString(ipAddress),
		UserAgent: models.NewNullString(userAgent),
		Details:   models.NewNullString(string(detailsJSON)),
	}
	if userID != nil {
		entry.UserID = uuid.NullUUID{UUID: *userID, Valid: true}
	}

	if err := s.auditRepo.CreateEntry(entry); err != nil {
		s.logger.WithError(err).WithField("action", action).Error("Failed to write audit log entry")
	}
}
