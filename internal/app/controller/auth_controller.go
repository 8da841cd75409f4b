package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/app/service"
	apperrors "github.com/ikkim/talentbase-backend/internal/errors"
	"github.com/ikkim/talentbase-backend/internal/middleware"
)

type AuthController struct {
	identityService service.IdentityService
}

func NewAuthController(identityService service.IdentityService) *AuthController {
	return &AuthController{identityService: identityService}
}

type RegisterRequest struct {
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	Role                 string `json:"role" binding:"required,role"`
}

type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric,max=16"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ValidateResetQuery struct {
	Email string `form:"email" binding:"required,email"`
	Token string `form:"token" binding:"required"`
}

type ResetPasswordRequest struct {
	Email                   string `json:"email" binding:"required,email"`
	Token                   string `json:"token" binding:"required"`
	NewPassword             string `json:"new_password" binding:"required,min=8,max=128"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required"`
}

func accountResponse(account *model.Account) gin.H {
	return gin.H{
		"id":         account.ID,
		"email":      account.Email,
		"role":       account.Role,
		"active":     account.Active,
		"created_at": account.CreatedAt,
	}
}

// Register starts a registration and mails a verification code
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}
	if req.Password != req.PasswordConfirmation {
		ctrl.respondError(c, service.ErrPasswordMismatch, "register")
		return
	}

	email, err := ctrl.identityService.BeginRegistration(c.Request.Context(), req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		ctrl.respondError(c, err, "register")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Verification code sent",
		"email":   email,
	})
}

// Verify confirms a registration with the mailed code and signs the account in
// POST /api/v1/auth/verify
func (ctrl *AuthController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verification request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	account, tokens, err := ctrl.identityService.ConfirmRegistration(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		ctrl.respondError(c, err, "register")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created",
		"account": accountResponse(account),
		"tokens":  tokens,
	})
}

// Login handles account login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	account, tokens, err := ctrl.identityService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ctrl.respondError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"account": accountResponse(account),
		"tokens":  tokens,
	})
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.identityService.Logout(c.Request.Context(), claims); err != nil {
		ctrl.respondError(c, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the authenticated account
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	account, err := ctrl.identityService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Account not found")
			return
		}
		ctrl.respondError(c, err, "find account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": accountResponse(account)})
}

// ForgotPassword mails a password reset link
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid forgot password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	if err := ctrl.identityService.BeginPasswordReset(c.Request.Context(), req.Email); err != nil {
		ctrl.respondError(c, err, "reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset link sent"})
}

// ValidateResetToken checks a reset link before the new password form is shown
// GET /api/v1/auth/reset-password?email=...&token=...
func (ctrl *AuthController) ValidateResetToken(c *gin.Context) {
	var query ValidateResetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		ctrl.respondError(c, service.ErrInvalidOrExpiredToken, "reset")
		return
	}

	if _, err := ctrl.identityService.ValidateResetToken(c.Request.Context(), query.Email, query.Token); err != nil {
		ctrl.respondError(c, err, "reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword sets a new password with a reset token
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid reset password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	err := ctrl.identityService.CompletePasswordReset(
		c.Request.Context(),
		req.Email,
		req.Token,
		req.NewPassword,
		req.NewPasswordConfirmation,
	)
	if err != nil {
		ctrl.respondError(c, err, "reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. Please log in again"})
}

// Capabilities lists what the caller's role may do
// GET /api/v1/me/capabilities
func (ctrl *AuthController) Capabilities(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		apperrors.Unauthorized(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":         identity.Role,
		"capabilities": middleware.CapabilitiesOf(identity),
	})
}

// CapabilityGranted answers for routes already guarded by RequireCapability(capability)
// GET /api/v1/me/capabilities/{capability}
func (ctrl *AuthController) CapabilityGranted(capability middleware.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := middleware.GetAccountRole(c)
		c.JSON(http.StatusOK, gin.H{
			"capability": capability,
			"role":       role,
			"granted":    true,
		})
	}
}

func (ctrl *AuthController) respondError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrAlreadyRegistered):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		apperrors.BadRequest(c, apperrors.AuthCodeInvalid, "Invalid or expired verification code")
	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
	case errors.Is(err, service.ErrNotFound):
		apperrors.NotFound(c, apperrors.AuthEmailNotFound, "Email not found")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "Invalid or expired reset link")
	case errors.Is(err, service.ErrPasswordMismatch):
		apperrors.BadRequest(c, apperrors.AuthPasswordMismatch, "Passwords do not match")
	case errors.Is(err, service.ErrInvalidRole):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRole, "Role must be jobseeker or employer")
	case errors.Is(err, service.ErrRateLimited):
		apperrors.TooManyRequests(c, "")
	case errors.Is(err, service.ErrConflict):
		log.Warn("Conflicting write", map[string]interface{}{"context": context, "error": err.Error()})
		apperrors.Conflict(c, apperrors.ResourceConflict, "Request conflicted with another one. Please try again")
	case errors.Is(err, service.ErrStorageUnavailable):
		log.Error("Storage unavailable", err, map[string]interface{}{"context": context})
		apperrors.ServiceUnavailable(c, "")
	default:
		log.Error("Unexpected identity error", err, map[string]interface{}{"context": context})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}
