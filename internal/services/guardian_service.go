package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/pkg/push"
	"github.com/sirupsen/logrus"
)

// GuardianService owns the protector-guardian relationship graph
type GuardianService struct {
	guardianRepo     *database.GuardianRepository
	userRepo         *database.UserRepository
	notificationRepo *database.NotificationRepository
	pushGateway      push.Gateway
	logger           *logrus.Logger
}

// NewGuardianService creates a new guardian service
func NewGuardianService(
	guardianRepo *database.GuardianRepository,
	userRepo *database.UserRepository,
	notificationRepo *database.NotificationRepository,
	pushGateway push.Gateway,
	logger *logrus.Logger,
) *GuardianService {
	return &GuardianService{
		guardianRepo:     guardianRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		pushGateway:      pushGateway,
		logger:           logger,
	}
}

// AddGuardian creates a PENDING guardian relation for the protector. If the
// phone belongs to a registered user, a GUARDIAN_REQUEST notification is
// written to that user's inbox and a push attempted; push failure never fails
// the guardian creation.
func (s *GuardianService) AddGuardian(protectorID uuid.UUID, name, phone string) (*models.Guardian, error) {
	protector, err := s.userRepo.GetUserByID(protectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load protector: %w", err)
	}
	if protector == nil {
		return nil, ErrUserNotFound
	}

	count, err := s.guardianRepo.CountByUser(protectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count guardians: %w", err)
	}
	if count >= models.MaxGuardiansPerUser {
		return nil, ErrGuardianLimit
	}

	guardian, err := s.guardianRepo.CreateGuardian(protectorID, name, phone)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrGuardianCapReached):
			return nil, ErrGuardianLimit
		case errors.Is(err, database.ErrDuplicateGuardian):
			return nil, ErrDuplicateGuardian
		default:
			return nil, err
		}
	}

	s.notifyInvitee(protector, guardian)

	return guardian, nil
}

// notifyInvitee writes the guardian-request inbox entry for a registered
// invitee and attempts a best-effort push. Everything here is non-fatal.
func (s *GuardianService) notifyInvitee(protector *models.User, guardian *models.Guardian) {
	invitee, err := s.userRepo.GetUserByPhone(guardian.GuardianPhone)
	if err != nil {
		s.logger.WithError(err).WithField("guardian_id", guardian.ID).
			Warn("Failed to resolve guardian phone to a user")
		return
	}
	if invitee == nil {
		return // Not a registered user, nothing to deliver
	}

	title := "Guardian request"
	body := fmt.Sprintf("%s wants to add you as a guardian.", protector.DisplayName())

	payload, _ := json.Marshal(models.GuardianRequestData{GuardianID: guardian.ID})
	if _, err := s.notificationRepo.CreateNotification(
		invitee.ID, title, body,
		models.NotificationTypeGuardianRequest,
		models.NewNullString(string(payload)),
	); err != nil {
		s.logger.WithError(err).WithField("guardian_id", guardian.ID).
			Error("Failed to persist guardian request notification")
		return
	}

	if !invitee.FCMToken.Valid {
		return
	}

	if err := s.pushGateway.SendToToken(invitee.FCMToken.String, title, body, map[string]string{
		"type":        string(models.NotificationTypeGuardianRequest),
		"guardian_id": guardian.ID.String(),
	}); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"guardian_id": guardian.ID,
			"gateway":     s.pushGateway.GetName(),
		}).Warn("Guardian request push failed")
	}
}

// RespondToRequest writes the guardian-side decision on a relation.
// Repeating the same decision is a no-op, not an error.
func (s *GuardianService) RespondToRequest(guardianID uuid.UUID, decision models.GuardianStatus) (*models.Guardian, error) {
	if !decision.IsDecision() {
		return nil, ErrInvalidDecision
	}

	guardian, err := s.guardianRepo.GetGuardianByID(guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guardian: %w", err)
	}
	if guardian == nil {
		return nil, ErrGuardianNotFound
	}

	if guardian.Status == decision {
		return guardian, nil
	}

	found, err := s.guardianRepo.UpdateStatus(guardianID, decision)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGuardianNotFound
	}

	guardian.Status = decision
	return guardian, nil
}

// DeleteGuardian removes a guardian relation
func (s *GuardianService) DeleteGuardian(id uuid.UUID) error {
	found, err := s.guardianRepo.DeleteGuardian(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrGuardianNotFound
	}

	return nil
}

// GetGuardians returns the protector's relations, newest first
func (s *GuardianService) GetGuardians(protectorID uuid.UUID) ([]*models.Guardian, error) {
	return s.guardianRepo.ListByUser(protectorID)
}

// GetPeopleIProtect returns the relations where the caller is the guardian,
// joined to the protector's profile, newest first.
func (s *GuardianService) GetPeopleIProtect(userID uuid.UUID) ([]*models.ProtectedUser, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.guardianRepo.ListProtectedUsers(user.Phone)
}
