package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"Nil", nil, "", InternalServerError},
		{"Record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "find account", ResourceNotFound},
		{"Duplicate account email", errors.New(`ERROR: duplicate key value violates unique constraint "idx_accounts_email" on accounts (email)`), "register", AuthEmailAlreadyExists},
		{"Duplicate token", errors.New(`UNIQUE constraint failed: idx_credential_tokens_account_purpose`), "reset", ResourceConflict},
		{"Foreign key", gorm.ErrForeignKeyViolated, "reset", ResourceNotFound},
		{"Not null", errors.New(`null value in column "email" violates not-null constraint`), "register", ValidationRequired},
		{"Connection refused", errors.New("dial tcp: connection refused"), "login", InternalDatabaseError},
		{"Unknown", errors.New("boom"), "register", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
			assert.NotContains(t, info.Message, "idx_")
		})
	}
}

func TestResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"Unauthorized", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, AuthUnauthorized},
		{"Forbidden", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, AuthzForbidden},
		{"TooManyRequests", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, RateLimited},
		{"ServiceUnavailable", func(c *gin.Context) { ServiceUnavailable(c, "") }, http.StatusServiceUnavailable, InternalDatabaseError},
		{"Conflict", func(c *gin.Context) { Conflict(c, AuthEmailAlreadyExists, "taken") }, http.StatusConflict, AuthEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tt.wantCode+`"`)
		})
	}
}
