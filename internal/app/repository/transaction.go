package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TransactionManager runs a unit of work against repositories bound to one transaction.
type TransactionManager interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories hands out repositories that share a single connection.
type Repositories interface {
	Accounts() AccountRepository
	PendingRegistrations() PendingRegistrationRepository
	CredentialTokens() CredentialTokenRepository
}

type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Accounts() AccountRepository {
	return NewAccountRepository(r.db)
}

func (r *gormRepositories) PendingRegistrations() PendingRegistrationRepository {
	return NewPendingRegistrationRepository(r.db)
}

func (r *gormRepositories) CredentialTokens() CredentialTokenRepository {
	return NewCredentialTokenRepository(r.db)
}

// NewRepositories returns the non-transactional repository set.
func NewRepositories(db *gorm.DB) Repositories {
	return &gormRepositories{db: db}
}

type gormTransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute commits when fn returns nil and rolls back otherwise, including on panic.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repos Repositories) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositories{db: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
