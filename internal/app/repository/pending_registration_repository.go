package repository

import (
	"context"
	"time"

	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingRegistrationRepository interface {
	// Upsert inserts the registration or replaces the one already stored for its email.
	Upsert(ctx context.Context, pending *model.PendingRegistration) error
	FindByEmailAndCode(ctx context.Context, email, code string) (*model.PendingRegistration, error)
	// DeleteByEmailAndCode removes the row only while it still carries code.
	DeleteByEmailAndCode(ctx context.Context, email, code string) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type pendingRegistrationRepository struct {
	db *gorm.DB
}

func NewPendingRegistrationRepository(db *gorm.DB) PendingRegistrationRepository {
	return &pendingRegistrationRepository{db: db}
}

func (r *pendingRegistrationRepository) Upsert(ctx context.Context, pending *model.PendingRegistration) error {
	logger.Debug("Upserting pending registration in database", map[string]interface{}{
		"email": pending.Email,
	})

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"credential_digest", "role", "verification_code", "created_at"}),
	}).Create(pending).Error
	if err != nil {
		logger.Error("Failed to upsert pending registration in database", err, map[string]interface{}{
			"email": pending.Email,
		})
		return translate(err)
	}

	logger.Debug("Pending registration upserted in database", map[string]interface{}{
		"email": pending.Email,
	})
	return nil
}

func (r *pendingRegistrationRepository) FindByEmailAndCode(ctx context.Context, email, code string) (*model.PendingRegistration, error) {
	logger.Debug("Finding pending registration by email and code", map[string]interface{}{
		"email": email,
	})

	var pending model.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("email = ? AND verification_code = ?", email, code).
		First(&pending).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pending, nil
}

func (r *pendingRegistrationRepository) DeleteByEmailAndCode(ctx context.Context, email, code string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("email = ? AND verification_code = ?", email, code).
		Delete(&model.PendingRegistration{})
	if result.Error != nil {
		logger.Error("Failed to delete pending registration", result.Error, map[string]interface{}{
			"email": email,
		})
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *pendingRegistrationRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	logger.Debug("Deleting stale pending registrations from database", map[string]interface{}{
		"cutoff": cutoff,
	})

	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.PendingRegistration{})
	if result.Error != nil {
		logger.Error("Failed to delete stale pending registrations", result.Error, nil)
		return 0, translate(result.Error)
	}

	logger.Debug("Stale pending registrations deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
