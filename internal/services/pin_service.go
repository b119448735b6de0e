package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// PinStatus classifies a PIN entry
type PinStatus string

const (
	// PinStatusSafe means the candidate matched the safe PIN
	PinStatusSafe PinStatus = "SAFE"

	// PinStatusDuress means the candidate matched the duress PIN. Callers
	// must not surface this differently from SAFE to the device holder.
	PinStatusDuress PinStatus = "DURESS"

	// PinStatusInvalid means the candidate matched neither PIN
	PinStatusInvalid PinStatus = "INVALID"
)

// dummyPinHash is compared against when a user has no hash stored, so the
// verification path performs the same work whether or not a PIN is set.
// bcrypt hash of an unguessable placeholder, cost 10.
const dummyPinHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PinService classifies PIN entries and manages PIN changes
type PinService struct {
	userRepo   *database.UserRepository
	logger     *logrus.Logger
	bcryptCost int
}

// NewPinService creates a new PIN service
func NewPinService(userRepo *database.UserRepository, logger *logrus.Logger, bcryptCost int) *PinService {
	return &PinService{
		userRepo:   userRepo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// VerifyPin classifies a candidate PIN as SAFE, DURESS, or INVALID. Both hash
// comparisons always run before any branch so the three outcomes are
// indistinguishable in timing to an observer coercing the PIN entry.
func (s *PinService) VerifyPin(userID uuid.UUID, candidate string) (PinStatus, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	safeHash := dummyPinHash
	if user.SafePinHash.Valid {
		safeHash = user.SafePinHash.String
	}
	duressHash := dummyPinHash
	if user.DuressPinHash.Valid {
		duressHash = user.DuressPinHash.String
	}

	// Run both comparisons unconditionally, then branch.
	safeMatch := bcrypt.CompareHashAndPassword([]byte(safeHash), []byte(candidate)) == nil
	duressMatch := bcrypt.CompareHashAndPassword([]byte(duressHash), []byte(candidate)) == nil

	switch {
	case safeMatch && user.SafePinHash.Valid:
		return PinStatusSafe, nil
	case duressMatch && user.DuressPinHash.Valid:
		return PinStatusDuress, nil
	default:
		return PinStatusInvalid, nil
	}
}

// SetPins hashes and stores both PINs, rejecting equal raw values before any
// hashing happens.
func (s *PinService) SetPins(userID uuid.UUID, safePin, duressPin string) error {
	if safePin == duressPin {
		return ErrPinsMustDiffer
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.storePins(userID, safePin, duressPin)
}

// ChangePin replaces both PINs after verifying the current safe PIN. The
// current-PIN check is skipped for accounts that have never set a PIN.
func (s *PinService) ChangePin(userID uuid.UUID, oldPin, safePin, duressPin string) error {
	if safePin == duressPin {
		return ErrPinsMustDiffer
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.SafePinHash.Valid {
		if err := bcrypt.CompareHashAndPassword([]byte(user.SafePinHash.String), []byte(oldPin)); err != nil {
			return ErrInvalidCredentials
		}
	}

	return s.storePins(userID, safePin, duressPin)
}

func (s *PinService) storePins(userID uuid.UUID, safePin, duressPin string) error {
	safeHash, err := bcrypt.GenerateFromPassword([]byte(safePin), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash safe pin: %w", err)
	}

	duressHash, err := bcrypt.GenerateFromPassword([]byte(duressPin), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash duress pin: %w", err)
	}

	if err := s.userRepo.UpdatePinHashes(userID, string(safeHash), string(duressHash)); err != nil {
		return fmt.Errorf("failed to store pin hashes: %w", err)
	}

	s.logger.WithField("user_id", userID).Info("PINs updated")
	return nil
}
