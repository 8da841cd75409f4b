package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialTokenRepository interface {
	// Upsert stores the token, replacing any token held for the same (account, purpose).
	Upsert(ctx context.Context, token *model.CredentialToken) error
	FindByEmailAndSecret(ctx context.Context, email, secret string, purpose model.TokenPurpose) (*model.CredentialToken, error)
	// Delete returns the number of rows removed.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteCreatedBefore(ctx context.Context, purpose model.TokenPurpose, cutoff time.Time) (int64, error)
}

type credentialTokenRepository struct {
	db *gorm.DB
}

func NewCredentialTokenRepository(db *gorm.DB) CredentialTokenRepository {
	return &credentialTokenRepository{db: db}
}

func (r *credentialTokenRepository) Upsert(ctx context.Context, token *model.CredentialToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	logger.Debug("Upserting credential token in database", map[string]interface{}{
		"account_id": token.AccountID,
		"purpose":    token.Purpose,
	})

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "secret", "created_at"}),
	}).Create(token).Error
	if err != nil {
		logger.Error("Failed to upsert credential token in database", err, map[string]interface{}{
			"account_id": token.AccountID,
			"purpose":    token.Purpose,
		})
		return translate(err)
	}

	logger.Debug("Credential token upserted in database", map[string]interface{}{
		"token_id":   token.ID,
		"account_id": token.AccountID,
	})
	return nil
}

func (r *credentialTokenRepository) FindByEmailAndSecret(ctx context.Context, email, secret string, purpose model.TokenPurpose) (*model.CredentialToken, error) {
	logger.Debug("Finding credential token by email and secret", map[string]interface{}{
		"email":   email,
		"purpose": purpose,
	})

	var token model.CredentialToken
	err := r.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = credential_tokens.account_id").
		Where("accounts.email = ? AND credential_tokens.secret = ? AND credential_tokens.purpose = ?", email, secret, purpose).
		First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *credentialTokenRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CredentialToken{})
	if result.Error != nil {
		logger.Error("Failed to delete credential token", result.Error, map[string]interface{}{
			"token_id": id,
		})
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *credentialTokenRepository) DeleteCreatedBefore(ctx context.Context, purpose model.TokenPurpose, cutoff time.Time) (int64, error) {
	logger.Debug("Deleting stale credential tokens from database", map[string]interface{}{
		"purpose": purpose,
		"cutoff":  cutoff,
	})

	result := r.db.WithContext(ctx).
		Where("purpose = ? AND created_at < ?", purpose, cutoff).
		Delete(&model.CredentialToken{})
	if result.Error != nil {
		logger.Error("Failed to delete stale credential tokens", result.Error, nil)
		return 0, translate(result.Error)
	}

	logger.Debug("Stale credential tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
