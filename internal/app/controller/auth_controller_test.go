package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/talentbase-backend/internal/app/repository"
	"github.com/ikkim/talentbase-backend/internal/app/service"
	"github.com/ikkim/talentbase-backend/internal/db"
	"github.com/ikkim/talentbase-backend/internal/middleware"
	"github.com/ikkim/talentbase-backend/internal/notifier"
	"github.com/ikkim/talentbase-backend/pkg/inmem"
	"github.com/ikkim/talentbase-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

type outbox struct {
	mu       sync.Mutex
	messages []notifier.Message
}

func (o *outbox) Send(_ context.Context, msg notifier.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
}

func (o *outbox) last(t *testing.T) notifier.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.messages)
	return o.messages[len(o.messages)-1]
}

type controllerFixture struct {
	router *gin.Engine
	outbox *outbox
	clock  *util.FixedClock
}

func setupAuthControllerTest(t *testing.T) *controllerFixture {
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	f := &controllerFixture{
		outbox: &outbox{},
		clock:  util.NewFixedClock(time.Now()),
	}
	revocations := inmem.NewRevocationList()
	identityService := service.NewIdentityService(service.IdentityDependencies{
		Repositories: repository.NewRepositories(testDB),
		Transactions: repository.NewTransactionManager(testDB),
		Hasher:       util.NewBcryptHasher(bcrypt.MinCost),
		Notifier:     f.outbox,
		Clock:        f.clock,
		Sessions:     service.NewJWTSessionIssuer(testJWTSecret, 15*time.Minute, time.Hour),
		Revoker:      revocations,
	}, service.IdentityOptions{
		CodeLength:                6,
		CodeTTL:                   20 * time.Minute,
		ResetTokenTTL:             20 * time.Minute,
		ResetLinkBaseURL:          "http://localhost:3000/reset-password",
		DiscloseUnknownResetEmail: true,
	})

	ctrl := NewAuthController(identityService)
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret, revocations)

	router := gin.New()
	anonymous := router.Group("", authMiddleware.OptionalAuthenticate(), middleware.RedirectIfAuthenticated())
	anonymous.POST("/register", ctrl.Register)
	anonymous.POST("/login", ctrl.Login)
	router.POST("/verify", ctrl.Verify)
	router.POST("/forgot-password", ctrl.ForgotPassword)
	router.GET("/reset-password", ctrl.ValidateResetToken)
	router.POST("/reset-password", ctrl.ResetPassword)
	router.POST("/logout", authMiddleware.Authenticate(), ctrl.Logout)
	router.GET("/me", authMiddleware.Authenticate(), ctrl.GetMe)
	router.GET("/capabilities", authMiddleware.Authenticate(), ctrl.Capabilities)
	router.GET("/capabilities/post_jobs",
		authMiddleware.Authenticate(),
		middleware.RequireCapability(middleware.CapabilityPostJobs),
		ctrl.CapabilityGranted(middleware.CapabilityPostJobs),
	)

	f.router = router
	return f
}

func (f *controllerFixture) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (f *controllerFixture) signUp(t *testing.T, email, password, role string) string {
	t.Helper()
	w, _ := f.do(t, "POST", "/register", RegisterRequest{
		Email: email, Password: password, PasswordConfirmation: password, Role: role,
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	code := f.outbox.last(t).Context["code"].(string)
	w, resp := f.do(t, "POST", "/verify", VerifyRequest{Email: email, Code: code}, "")
	require.Equal(t, http.StatusOK, w.Code)
	return resp["tokens"].(map[string]interface{})["access_token"].(string)
}

func TestAuthController_RegisterAndVerify(t *testing.T) {
	f := setupAuthControllerTest(t)

	w, resp := f.do(t, "POST", "/register", RegisterRequest{
		Email: "New@Example.com", Password: "password123", PasswordConfirmation: "password123", Role: "employer",
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "new@example.com", resp["email"])

	code := f.outbox.last(t).Context["code"].(string)

	w, resp = f.do(t, "POST", "/verify", VerifyRequest{Email: "new@example.com", Code: code}, "")
	require.Equal(t, http.StatusOK, w.Code)
	account := resp["account"].(map[string]interface{})
	assert.Equal(t, "new@example.com", account["email"])
	assert.Equal(t, "employer", account["role"])
	assert.NotContains(t, w.Body.String(), "credential_digest")
	assert.NotEmpty(t, resp["tokens"].(map[string]interface{})["access_token"])

	w, resp = f.do(t, "POST", "/verify", VerifyRequest{Email: "new@example.com", Code: code}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AUTH_CODE_INVALID", resp["error"])
}

func TestAuthController_VerifyWhileAuthenticated(t *testing.T) {
	f := setupAuthControllerTest(t)
	existing := f.signUp(t, "first@example.com", "password123", "employer")

	w, _ := f.do(t, "POST", "/register", RegisterRequest{
		Email: "second@example.com", Password: "password123", PasswordConfirmation: "password123", Role: "jobseeker",
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	code := f.outbox.last(t).Context["code"].(string)

	w, resp := f.do(t, "POST", "/verify", VerifyRequest{Email: "second@example.com", Code: code}, existing)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "second@example.com", resp["account"].(map[string]interface{})["email"])
}

func TestAuthController_Register_Validation(t *testing.T) {
	f := setupAuthControllerTest(t)

	tests := []struct {
		name      string
		body      RegisterRequest
		wantCode  string
		wantField string
	}{
		{
			name:      "Invalid email",
			body:      RegisterRequest{Email: "nope", Password: "password123", PasswordConfirmation: "password123", Role: "jobseeker"},
			wantCode:  "VALIDATION_INVALID_INPUT",
			wantField: "email",
		},
		{
			name:      "Short password",
			body:      RegisterRequest{Email: "a@example.com", Password: "short", PasswordConfirmation: "short", Role: "jobseeker"},
			wantCode:  "VALIDATION_INVALID_INPUT",
			wantField: "password",
		},
		{
			name:      "Unknown role",
			body:      RegisterRequest{Email: "a@example.com", Password: "password123", PasswordConfirmation: "password123", Role: "admin"},
			wantCode:  "VALIDATION_INVALID_INPUT",
			wantField: "role",
		},
		{
			name:      "Missing confirmation",
			body:      RegisterRequest{Email: "a@example.com", Password: "password123", Role: "jobseeker"},
			wantCode:  "VALIDATION_INVALID_INPUT",
			wantField: "password_confirmation",
		},
		{
			name:     "Confirmation mismatch",
			body:     RegisterRequest{Email: "a@example.com", Password: "password123", PasswordConfirmation: "password124", Role: "jobseeker"},
			wantCode: "AUTH_PASSWORD_MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := f.do(t, "POST", "/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, resp["error"])
			if tt.wantField != "" {
				fields := resp["fields"].(map[string]interface{})
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	f := setupAuthControllerTest(t)
	f.signUp(t, "dup@example.com", "password123", "jobseeker")

	w, resp := f.do(t, "POST", "/register", RegisterRequest{
		Email: "dup@example.com", Password: "password123", PasswordConfirmation: "password123", Role: "jobseeker",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_EMAIL_EXISTS", resp["error"])
}

func TestAuthController_Login(t *testing.T) {
	f := setupAuthControllerTest(t)
	f.signUp(t, "login@example.com", "password123", "jobseeker")

	w, resp := f.do(t, "POST", "/login", LoginRequest{Email: "login@example.com", Password: "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	access := resp["tokens"].(map[string]interface{})["access_token"].(string)

	wrong, wrongResp := f.do(t, "POST", "/login", LoginRequest{Email: "login@example.com", Password: "bad-password"}, "")
	ghost, ghostResp := f.do(t, "POST", "/login", LoginRequest{Email: "ghost@example.com", Password: "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, ghost.Code)
	assert.Equal(t, wrongResp, ghostResp)

	w, resp = f.do(t, "POST", "/login", LoginRequest{Email: "login@example.com", Password: "password123"}, access)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_ALREADY_AUTHENTICATED", resp["error"])
}

func TestAuthController_MeAndLogout(t *testing.T) {
	f := setupAuthControllerTest(t)
	access := f.signUp(t, "me@example.com", "password123", "employer")

	w, resp := f.do(t, "GET", "/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "me@example.com", resp["account"].(map[string]interface{})["email"])

	w, _ = f.do(t, "GET", "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, "POST", "/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, "GET", "/me", nil, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", resp["error"])
}

func TestAuthController_Capabilities(t *testing.T) {
	f := setupAuthControllerTest(t)
	employer := f.signUp(t, "boss@example.com", "password123", "employer")
	jobseeker := f.signUp(t, "seeker@example.com", "password123", "jobseeker")

	w, resp := f.do(t, "GET", "/capabilities", nil, employer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"post_jobs"}, resp["capabilities"])

	w, _ = f.do(t, "GET", "/capabilities/post_jobs", nil, employer)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, "GET", "/capabilities/post_jobs", nil, jobseeker)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_EMPLOYER_ONLY", resp["error"])
}

func TestAuthController_PasswordReset(t *testing.T) {
	f := setupAuthControllerTest(t)
	f.signUp(t, "reset@example.com", "password123", "jobseeker")

	w, resp := f.do(t, "POST", "/forgot-password", ForgotPasswordRequest{Email: "unknown@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "AUTH_EMAIL_NOT_FOUND", resp["error"])

	w, _ = f.do(t, "POST", "/forgot-password", ForgotPasswordRequest{Email: "reset@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	link, err := url.Parse(f.outbox.last(t).Context["reset_link"].(string))
	require.NoError(t, err)
	secret := link.Query().Get("token")

	w, _ = f.do(t, "GET", "/reset-password?"+link.RawQuery, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, "GET", "/reset-password?email=reset%40example.com&token=forged", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AUTH_RESET_TOKEN_INVALID", resp["error"])

	w, resp = f.do(t, "POST", "/reset-password", ResetPasswordRequest{
		Email: "reset@example.com", Token: secret, NewPassword: "newpassword1", NewPasswordConfirmation: "newpassword2",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AUTH_PASSWORD_MISMATCH", resp["error"])

	w, _ = f.do(t, "POST", "/reset-password", ResetPasswordRequest{
		Email: "reset@example.com", Token: secret, NewPassword: "newpassword1", NewPasswordConfirmation: "newpassword1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, "POST", "/reset-password", ResetPasswordRequest{
		Email: "reset@example.com", Token: secret, NewPassword: "newpassword2", NewPasswordConfirmation: "newpassword2",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AUTH_RESET_TOKEN_INVALID", resp["error"])

	w, _ = f.do(t, "POST", "/login", LoginRequest{Email: "reset@example.com", Password: "newpassword1"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthController_LongPasswords(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"ASCII over 72 bytes", "ascii@example.com", strings.Repeat("a", 100)},
		{"Multibyte over 72 bytes", "multibyte@example.com", strings.Repeat("한", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthControllerTest(t)
			f.signUp(t, tt.email, tt.password, "jobseeker")

			w, _ := f.do(t, "POST", "/login", LoginRequest{Email: tt.email, Password: tt.password}, "")
			assert.Equal(t, http.StatusOK, w.Code)

			w, _ = f.do(t, "POST", "/forgot-password", ForgotPasswordRequest{Email: tt.email}, "")
			require.Equal(t, http.StatusOK, w.Code)
			link, err := url.Parse(f.outbox.last(t).Context["reset_link"].(string))
			require.NoError(t, err)

			newPassword := tt.password + "!"
			w, _ = f.do(t, "POST", "/reset-password", ResetPasswordRequest{
				Email: tt.email, Token: link.Query().Get("token"),
				NewPassword: newPassword, NewPasswordConfirmation: newPassword,
			}, "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
