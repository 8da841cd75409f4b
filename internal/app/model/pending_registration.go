package model

import (
	"time"
)

// PendingRegistration is a signup waiting for its email verification code.
type PendingRegistration struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Email            string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CredentialDigest string    `gorm:"size:255;not null" json:"-"`
	Role             Role      `gorm:"type:varchar(20);not null" json:"role"`
	VerificationCode string    `gorm:"size:16;not null" json:"-"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (PendingRegistration) TableName() string {
	return "pending_registrations"
}

// IsValid reports whether the code is still inside its validity window at now.
func (p *PendingRegistration) IsValid(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) <= ttl
}
