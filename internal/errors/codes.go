package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map messages from these codes.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized         = "AUTH_UNAUTHORIZED"          // login required
	AuthInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"   // wrong email or password
	AuthTokenExpired         = "AUTH_TOKEN_EXPIRED"         // session token expired
	AuthTokenInvalid         = "AUTH_TOKEN_INVALID"         // malformed session token
	AuthTokenRevoked         = "AUTH_TOKEN_REVOKED"         // logged out token
	AuthEmailAlreadyExists   = "AUTH_EMAIL_EXISTS"          // email already registered
	AuthEmailNotFound        = "AUTH_EMAIL_NOT_FOUND"       // reset requested for unknown email
	AuthCodeInvalid          = "AUTH_CODE_INVALID"          // wrong or expired verification code
	AuthResetTokenInvalid    = "AUTH_RESET_TOKEN_INVALID"   // wrong, used or expired reset token
	AuthPasswordMismatch     = "AUTH_PASSWORD_MISMATCH"     // password and confirmation differ
	AuthAlreadyAuthenticated = "AUTH_ALREADY_AUTHENTICATED" // endpoint is for anonymous callers

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden      = "AUTHZ_FORBIDDEN"       // access denied
	AuthzEmployerOnly   = "AUTHZ_EMPLOYER_ONLY"   // post_jobs capability required
	AuthzJobseekerOnly  = "AUTHZ_JOBSEEKER_ONLY"  // apply_jobs capability required
	AuthzRoleNotFound   = "AUTHZ_ROLE_NOT_FOUND"  // no role in context

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRole   = "VALIDATION_INVALID_ROLE"
	ValidationTooShort      = "VALIDATION_TOO_SHORT"
	ValidationTooLong       = "VALIDATION_TOO_LONG"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Throttling ====================
	RateLimited = "RATE_LIMITED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
