package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a storage error into a code and a message that is safe to show.
// Constraint names and SQL never leak into the message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// 23505
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// 23503
	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced account does not exist"}
	}

	// 23502
	if strings.Contains(errLower, "null value") && strings.Contains(errLower, "not-null constraint") {
		return parseNotNullError(errLower)
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "Storage is unreachable. Please try again",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "accounts") && strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	}
	if strings.Contains(errLower, "idx_credential_tokens_account_purpose") {
		return ErrorInfo{Code: ResourceConflict, Message: "A newer request is in progress. Please try again"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Record already exists"}
}

func parseNotNullError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: ValidationRequired, Message: "Email is required"}
	case strings.Contains(errLower, "credential_digest"):
		return ErrorInfo{Code: ValidationRequired, Message: "Password is required"}
	case strings.Contains(errLower, "role"):
		return ErrorInfo{Code: ValidationRequired, Message: "Role is required"}
	}
	return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
}

func notFoundMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "account"):
		return "Account not found"
	case strings.Contains(c, "registration"):
		return "Registration not found"
	case strings.Contains(c, "token"):
		return "Token not found"
	}
	return "Requested data not found"
}

func defaultMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "register"):
		return "Registration failed. Please try again later"
	case strings.Contains(c, "reset"):
		return "Password reset failed. Please try again later"
	case strings.Contains(c, "login"):
		return "Login failed. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond writes ParseError(err, context) with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
