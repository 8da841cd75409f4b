package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenPurpose string

const (
	PurposePasswordReset TokenPurpose = "PASSWORD_RESET"
)

// CredentialToken is a single-use secret scoped to one account and purpose.
// There is at most one row per (account, purpose).
type CredentialToken struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uint         `gorm:"not null;uniqueIndex:idx_credential_tokens_account_purpose" json:"account_id"`
	Purpose   TokenPurpose `gorm:"type:varchar(50);not null;uniqueIndex:idx_credential_tokens_account_purpose" json:"purpose"`
	Secret    string       `gorm:"size:255;not null;index" json:"-"` // never exposed
	CreatedAt time.Time    `gorm:"not null;index" json:"created_at"`

	Account *Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CredentialToken) TableName() string {
	return "credential_tokens"
}

// IsValid reports whether the token is still inside its validity window at now.
func (t *CredentialToken) IsValid(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) <= ttl
}
