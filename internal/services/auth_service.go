package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields for phone-first registration. Both PINs
// are set at registration time.
type RegisterInput struct {
	Phone     string
	Password  string
	FullName  string
	Email     string
	SafePin   string
	DuressPin string
}

// AuthService handles registration and password login
type AuthService struct {
	userRepo   *database.UserRepository
	logger     *logrus.Logger
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *database.UserRepository, logger *logrus.Logger, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account. The raw safe and duress PINs are compared
// before any hashing; equal PINs are rejected outright.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	if input.SafePin == input.DuressPin {
		return nil, ErrPinsMustDiffer
	}

	email := strings.TrimSpace(input.Email)

	existing, err := s.userRepo.GetUserByPhone(input.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	if email != "" {
		existing, err = s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	safePinHash, err := bcrypt.GenerateFromPassword([]byte(input.SafePin), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash safe pin: %w", err)
	}
	duressPinHash, err := bcrypt.GenerateFromPassword([]byte(input.DuressPin), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash duress pin: %w", err)
	}

	user, err := s.userRepo.CreateUser(
		input.Phone,
		models.NewNullString(email),
		models.NewNullString(strings.TrimSpace(input.FullName)),
		string(passwordHash),
		string(safePinHash),
		string(duressPinHash),
	)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login authenticates a user by phone or email plus password. Unknown
// identity and wrong password return the same error so responses never
// reveal whether an account exists.
func (s *AuthService) Login(identity, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByIdentity(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	storedHash := dummyPinHash
	if user != nil && user.PasswordHash.Valid {
		storedHash = user.PasswordHash.String
	}

	// Always run the comparison, even for unknown accounts.
	match := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil

	if user == nil || !user.PasswordHash.Valid || !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// UpdateProfile updates the user's name and email, rejecting an email
// already used by another account.
func (s *AuthService) UpdateProfile(userID uuid.UUID, fullName, email string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	email = strings.TrimSpace(email)
	if email != "" {
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != userID {
			return nil, ErrEmailTaken
		}
	}

	fullNameNS := models.NewNullString(strings.TrimSpace(fullName))
	emailNS := models.NewNullString(email)
	if err := s.userRepo.UpdateProfile(userID, fullNameNS, emailNS); err != nil {
		return nil, err
	}

	user.FullName = fullNameNS
	user.Email = emailNS
	return user, nil
}

// UpdateFCMToken stores the user's current push token
func (s *AuthService) UpdateFCMToken(userID uuid.UUID, token string) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.userRepo.UpdateFCMToken(userID, token)
}

// GetProfile returns the client-facing projection of a user
func (s *AuthService) GetProfile(userID uuid.UUID) (*models.Profile, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile := user.Profile()
	return &profile, nil
}
