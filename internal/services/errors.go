package services

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP status
// codes: validation errors to 400, not-found to 404, credential errors to 401.
var (
	// ErrUserNotFound indicates the referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrTripNotFound indicates the referenced trip does not exist
	ErrTripNotFound = errors.New("trip not found")

	// ErrGuardianNotFound indicates the referenced guardian relation does not exist
	ErrGuardianNotFound = errors.New("guardian not found")

	// ErrGuardianLimit indicates the protector already has the maximum number
	// of guardians
	ErrGuardianLimit = errors.New("maximum of 5 guardians allowed")

	// ErrDuplicateGuardian indicates a guardian with this phone already exists
	// for the protector
	ErrDuplicateGuardian = errors.New("this phone number is already a guardian")

	// ErrPinsMustDiffer indicates the safe and duress PINs are equal
	ErrPinsMustDiffer = errors.New("safe PIN and duress PIN must be different")

	// ErrInvalidCredentials indicates a failed login or PIN check. One message
	// covers both unknown-account and wrong-credential so responses do not
	// reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidDecision indicates a guardian response other than ACCEPTED or REJECTED
	ErrInvalidDecision = errors.New("decision must be ACCEPTED or REJECTED")

	// ErrInvalidDuration indicates a non-positive trip duration
	ErrInvalidDuration = errors.New("trip duration must be positive")

	// ErrPhoneTaken indicates the phone number is already registered
	ErrPhoneTaken = errors.New("phone number is already registered")

	// ErrEmailTaken indicates the email is already in use
	ErrEmailTaken = errors.New("email is already in use")
)
