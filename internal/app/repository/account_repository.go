package repository

import (
	"context"

	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id uint) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateCredentialDigest(ctx context.Context, id uint, digest string) error
	CreateInBatches(ctx context.Context, accounts []model.Account, batchSize int) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	logger.Debug("Creating account in database", map[string]interface{}{
		"email": account.Email,
	})

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		logger.Error("Failed to create account in database", err, map[string]interface{}{
			"email": account.Email,
		})
		return translate(err)
	}

	logger.Debug("Account created in database", map[string]interface{}{
		"account_id": account.ID,
		"email":      account.Email,
	})
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	logger.Debug("Finding account by email in database", map[string]interface{}{
		"email": email,
	})

	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		logger.Error("Failed to count accounts by email", err, map[string]interface{}{
			"email": email,
		})
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *accountRepository) UpdateCredentialDigest(ctx context.Context, id uint, digest string) error {
	logger.Debug("Updating account credential digest", map[string]interface{}{
		"account_id": id,
	})

	result := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).
		Update("credential_digest", digest)
	if result.Error != nil {
		logger.Error("Failed to update account credential digest", result.Error, map[string]interface{}{
			"account_id": id,
		})
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountRepository) CreateInBatches(ctx context.Context, accounts []model.Account, batchSize int) error {
	if len(accounts) == 0 {
		return nil
	}
	logger.Info("Bulk creating accounts", map[string]interface{}{
		"count":      len(accounts),
		"batch_size": batchSize,
	})

	if err := r.db.WithContext(ctx).CreateInBatches(accounts, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create accounts", err, nil)
		return translate(err)
	}
	return nil
}
