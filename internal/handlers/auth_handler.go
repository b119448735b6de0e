package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safetrek/safety-backend/internal/middleware"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/internal/services"
	"github.com/safetrek/safety-backend/pkg/jwt"
	"github.com/safetrek/safety-backend/pkg/validator"
)

// AuthHandler handles registration and login HTTP requests
type AuthHandler struct {
	authService    *services.AuthService
	auditService   *services.AuditService
	jwtService     *jwt.Service
	phoneValidator *validator.PhoneValidator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	auditService *services.AuditService,
	jwtService *jwt.Service,
	phoneValidator *validator.PhoneValidator,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		auditService:   auditService,
		jwtService:     jwtService,
		phoneValidator: phoneValidator,
	}
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Phone     string `json:"phone_number" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	SafePin   string `json:"safe_pin" binding:"required,len=4"`
	DuressPin string `json:"duress_pin" binding:"required,len=4"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Message string         `json:"message"`
	User    models.Profile `json:"user"`
}

// LoginRequest represents the login request. Identity is a phone number or email.
type LoginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Message      string         `json:"message"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         models.Profile `json:"user"`
}

// UpdateFCMTokenRequest represents the push token registration request
type UpdateFCMTokenRequest struct {
	Token string `json:"fcm_token" binding:"required"`
}

// RefreshTokenRequest represents the request to refresh an access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse represents the response after refreshing tokens
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	phone, err := h.phoneValidator.Validate(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_phone",
			Message: err.Error(),
		})
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Phone:     phone,
		Password:  req.Password,
		FullName:  req.FullName,
		Email:     req.Email,
		SafePin:   req.SafePin,
		DuressPin: req.DuressPin,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "Registration successful",
		User:    user.Profile(),
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.authService.Login(req.Identity, req.Password)
	if err != nil {
		h.auditService.LogLogin(nil, req.Identity, c.ClientIP(), c.Request.UserAgent(), false)
		respondError(c, err)
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogLogin(&user.ID, req.Identity, c.ClientIP(), c.Request.UserAgent(), true)

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Profile(),
	})
}

// RefreshToken handles POST /api/v1/auth/refresh. Validation is stateless:
// the refresh token only has to verify against the refresh secret and the
// account has to still exist; there is no server-side revocation list.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	profile, err := h.authService.GetProfile(claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Account no longer exists",
			})
			return
		}
		respondError(c, err)
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(profile.ID, profile.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(profile.ID, profile.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// GetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	profile, err := h.authService.GetProfile(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateFCMToken handles PATCH /api/v1/auth/fcm-token
func (h *AuthHandler) UpdateFCMToken(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.authService.UpdateFCMToken(userCtx.UserID, req.Token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
}
