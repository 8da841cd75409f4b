package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/talentbase-backend/config"
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/app/repository"
	"github.com/ikkim/talentbase-backend/internal/notifier"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"github.com/ikkim/talentbase-backend/pkg/util"
)

// resetSecretBytes gives reset secrets 256 bits of entropy.
const resetSecretBytes = 32

var (
	errPendingConsumed = errors.New("pending registration already consumed")
	errTokenConsumed   = errors.New("credential token already consumed")
)

type IdentityService interface {
	BeginRegistration(ctx context.Context, email, password string, role model.Role) (string, error)
	ConfirmRegistration(ctx context.Context, email, code string) (*model.Account, *util.TokenPair, error)
	Authenticate(ctx context.Context, email, password string) (*model.Account, *util.TokenPair, error)
	BeginPasswordReset(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, email, secret string) (*model.CredentialToken, error)
	CompletePasswordReset(ctx context.Context, email, secret, newPassword, confirmation string) error
	Logout(ctx context.Context, claims *util.Claims) error
	GetAccount(ctx context.Context, id uint) (*model.Account, error)
	PurgeExpired(ctx context.Context) (PurgeStats, error)
}

type IdentityOptions struct {
	CodeLength       int
	CodeTTL          time.Duration
	ResetTokenTTL    time.Duration
	ResetLinkBaseURL string
	// DiscloseUnknownResetEmail makes BeginPasswordReset answer ErrNotFound for unknown emails.
	DiscloseUnknownResetEmail bool
}

func IdentityOptionsFromConfig(cfg config.IdentityConfig) IdentityOptions {
	return IdentityOptions{
		CodeLength:                cfg.VerificationCodeLength,
		CodeTTL:                   cfg.VerificationCodeTTL,
		ResetTokenTTL:             cfg.ResetTokenTTL,
		ResetLinkBaseURL:          cfg.ResetLinkBaseURL,
		DiscloseUnknownResetEmail: cfg.DiscloseUnknownResetEmail,
	}
}

// IdentityDependencies are the collaborators of the identity service.
// Limiter and Revoker may be nil.
type IdentityDependencies struct {
	Repositories repository.Repositories
	Transactions repository.TransactionManager
	Hasher       CredentialHasher
	Notifier     Notifier
	Clock        util.Clock
	Sessions     SessionIssuer
	Limiter      AttemptLimiter
	Revoker      TokenRevoker
}

type PurgeStats struct {
	PendingRegistrations int64
	CredentialTokens     int64
}

type identityService struct {
	repos    repository.Repositories
	tx       repository.TransactionManager
	hasher   CredentialHasher
	notifier Notifier
	clock    util.Clock
	sessions SessionIssuer
	limiter  AttemptLimiter
	revoker  TokenRevoker
	opts     IdentityOptions
}

func NewIdentityService(deps IdentityDependencies, opts IdentityOptions) IdentityService {
	if deps.Clock == nil {
		deps.Clock = util.SystemClock{}
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 20 * time.Minute
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = 20 * time.Minute
	}
	return &identityService{
		repos:    deps.Repositories,
		tx:       deps.Transactions,
		hasher:   deps.Hasher,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		sessions: deps.Sessions,
		limiter:  deps.Limiter,
		revoker:  deps.Revoker,
		opts:     opts,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *identityService) BeginRegistration(ctx context.Context, email, password string, role model.Role) (string, error) {
	email = NormalizeEmail(email)
	logger.Info("Beginning registration", map[string]interface{}{
		"email": email,
		"role":  role,
	})

	if !role.Valid() {
		return "", ErrInvalidRole
	}
	if err := s.checkAttempts(ctx, "register", email); err != nil {
		return "", err
	}

	exists, err := s.repos.Accounts().ExistsByEmail(ctx, email)
	if err != nil {
		return "", storageError("check account", err)
	}
	if exists {
		logger.Warn("Registration rejected: email already registered", map[string]interface{}{
			"email": email,
		})
		return "", ErrAlreadyRegistered
	}

	code, err := util.GenerateNumericCode(s.opts.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return "", fmt.Errorf("hash password: %w", err)
	}

	pending := &model.PendingRegistration{
		Email:            email,
		CredentialDigest: digest,
		Role:             role,
		VerificationCode: code,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repos.PendingRegistrations().Upsert(ctx, pending); err != nil {
		return "", storageError("store pending registration", err)
	}

	s.notifier.Send(ctx, notifier.Message{
		Subject:    "Verify your TalentBase account",
		Recipients: []string{email},
		TemplateID: notifier.TemplateRegistrationCode,
		Context: map[string]any{
			"email":              email,
			"code":               code,
			"expires_in_minutes": int(s.opts.CodeTTL.Minutes()),
		},
	})

	logger.Info("Pending registration stored", map[string]interface{}{
		"email": email,
	})
	return email, nil
}

func (s *identityService) ConfirmRegistration(ctx context.Context, email, code string) (*model.Account, *util.TokenPair, error) {
	email = NormalizeEmail(email)
	logger.Info("Confirming registration", map[string]interface{}{
		"email": email,
	})

	pending, err := s.repos.PendingRegistrations().FindByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Confirmation rejected: no matching code", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidOrExpiredCode
		}
		return nil, nil, storageError("find pending registration", err)
	}
	if !pending.IsValid(s.clock.Now(), s.opts.CodeTTL) {
		logger.Warn("Confirmation rejected: code expired", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidOrExpiredCode
	}

	account := &model.Account{
		Email:            pending.Email,
		CredentialDigest: pending.CredentialDigest,
		Role:             pending.Role,
		Active:           true,
	}
	err = s.tx.Execute(ctx, func(repos repository.Repositories) error {
		if err := repos.Accounts().Create(ctx, account); err != nil {
			return err
		}
		n, err := repos.PendingRegistrations().DeleteByEmailAndCode(ctx, pending.Email, pending.VerificationCode)
		if err != nil {
			return err
		}
		if n == 0 {
			return errPendingConsumed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, errPendingConsumed) {
			logger.Warn("Confirmation lost a race", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidOrExpiredCode
		}
		return nil, nil, storageError("confirm registration", err)
	}

	tokens, err := s.sessions.Issue(account)
	if err != nil {
		logger.Error("Failed to issue session", err, map[string]interface{}{
			"account_id": account.ID,
		})
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}

	logger.Info("Registration confirmed", map[string]interface{}{
		"account_id": account.ID,
		"email":      account.Email,
		"role":       account.Role,
	})
	return account, tokens, nil
}

func (s *identityService) Authenticate(ctx context.Context, email, password string) (*model.Account, *util.TokenPair, error) {
	email = NormalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	account, err := s.repos.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Login failed: account not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, storageError("find account", err)
	}

	if !account.Active || !s.hasher.Verify(password, account.CredentialDigest) {
		logger.Warn("Login failed: invalid password or inactive account", map[string]interface{}{
			"email":      email,
			"account_id": account.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.sessions.Issue(account)
	if err != nil {
		logger.Error("Failed to issue session", err, map[string]interface{}{
			"account_id": account.ID,
		})
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}

	logger.Info("Account logged in", map[string]interface{}{
		"account_id": account.ID,
		"role":       account.Role,
	})
	return account, tokens, nil
}

func (s *identityService) BeginPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	if err := s.checkAttempts(ctx, "reset", email); err != nil {
		return err
	}

	account, err := s.repos.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			if s.opts.DiscloseUnknownResetEmail {
				return ErrNotFound
			}
			return nil
		}
		return storageError("find account", err)
	}

	secret, err := util.GenerateSecret(resetSecretBytes)
	if err != nil {
		return fmt.Errorf("generate reset secret: %w", err)
	}

	token := &model.CredentialToken{
		AccountID: account.ID,
		Purpose:   model.PurposePasswordReset,
		Secret:    secret,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repos.CredentialTokens().Upsert(ctx, token); err != nil {
		return storageError("store reset token", err)
	}

	s.notifier.Send(ctx, notifier.Message{
		Subject:    "Reset your TalentBase password",
		Recipients: []string{account.Email},
		TemplateID: notifier.TemplatePasswordReset,
		Context: map[string]any{
			"email":              account.Email,
			"reset_link":         s.resetLink(account.Email, secret),
			"expires_in_minutes": int(s.opts.ResetTokenTTL.Minutes()),
		},
	})

	logger.Info("Password reset token issued", map[string]interface{}{
		"account_id": account.ID,
		"token_id":   token.ID,
	})
	return nil
}

func (s *identityService) ValidateResetToken(ctx context.Context, email, secret string) (*model.CredentialToken, error) {
	email = NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	token, err := s.repos.CredentialTokens().FindByEmailAndSecret(ctx, email, secret, model.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Invalid reset token provided", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, storageError("find reset token", err)
	}
	if !token.IsValid(s.clock.Now(), s.opts.ResetTokenTTL) {
		logger.Warn("Reset token has expired", map[string]interface{}{
			"email":    email,
			"token_id": token.ID,
		})
		return nil, ErrInvalidOrExpiredToken
	}
	return token, nil
}

func (s *identityService) CompletePasswordReset(ctx context.Context, email, secret, newPassword, confirmation string) error {
	if newPassword != confirmation {
		return ErrPasswordMismatch
	}

	token, err := s.ValidateResetToken(ctx, email, secret)
	if err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"account_id": token.AccountID,
		})
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.tx.Execute(ctx, func(repos repository.Repositories) error {
		if err := repos.Accounts().UpdateCredentialDigest(ctx, token.AccountID, digest); err != nil {
			return err
		}
		n, err := repos.CredentialTokens().Delete(ctx, token.ID)
		if err != nil {
			return err
		}
		if n != 1 {
			return errTokenConsumed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errTokenConsumed) || errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Password reset lost a race", map[string]interface{}{
				"account_id": token.AccountID,
			})
			return ErrInvalidOrExpiredToken
		}
		return storageError("complete password reset", err)
	}

	logger.Info("Password reset successful", map[string]interface{}{
		"account_id": token.AccountID,
	})
	return nil
}

func (s *identityService) Logout(ctx context.Context, claims *util.Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := claims.ExpiresAt.Time.Sub(s.clock.Now())
	if remaining <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, remaining); err != nil {
		return storageError("revoke session", err)
	}

	logger.Info("Session revoked", map[string]interface{}{
		"account_id": claims.AccountID,
	})
	return nil
}

func (s *identityService) GetAccount(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.repos.Accounts().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("find account", err)
	}
	return account, nil
}

// PurgeExpired deletes rows that can no longer be validated. Expiry is enforced at read time,
// so this only reclaims space.
func (s *identityService) PurgeExpired(ctx context.Context) (PurgeStats, error) {
	now := s.clock.Now()
	var stats PurgeStats

	n, err := s.repos.PendingRegistrations().DeleteCreatedBefore(ctx, now.Add(-s.opts.CodeTTL))
	if err != nil {
		return stats, storageError("purge pending registrations", err)
	}
	stats.PendingRegistrations = n

	n, err = s.repos.CredentialTokens().DeleteCreatedBefore(ctx, model.PurposePasswordReset, now.Add(-s.opts.ResetTokenTTL))
	if err != nil {
		return stats, storageError("purge credential tokens", err)
	}
	stats.CredentialTokens = n

	logger.Info("Expired identity rows purged", map[string]interface{}{
		"pending_registrations": stats.PendingRegistrations,
		"credential_tokens":     stats.CredentialTokens,
	})
	return stats, nil
}

func (s *identityService) checkAttempts(ctx context.Context, action, email string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, action+":"+email)
	if err != nil {
		logger.Error("Attempt limiter unavailable", err, map[string]interface{}{
			"action": action,
		})
		return storageError("check attempts", err)
	}
	if !ok {
		logger.Warn("Too many attempts", map[string]interface{}{
			"action": action,
			"email":  email,
		})
		return ErrRateLimited
	}
	return nil
}

func (s *identityService) resetLink(email, secret string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", secret)
	if s.opts.ResetLinkBaseURL == "" {
		return "?" + q.Encode()
	}
	sep := "?"
	if strings.Contains(s.opts.ResetLinkBaseURL, "?") {
		sep = "&"
	}
	return s.opts.ResetLinkBaseURL + sep + q.Encode()
}
