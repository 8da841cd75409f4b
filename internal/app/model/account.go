package model

import (
	"time"
)

type Role string // account role

const (
	RoleJobseeker Role = "jobseeker"
	RoleEmployer  Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleJobseeker || r == RoleEmployer
}

type Account struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Email            string    `gorm:"size:255;uniqueIndex;not null" json:"email"` // lowercase
	CredentialDigest string    `gorm:"size:255;not null" json:"-"`
	Role             Role      `gorm:"type:varchar(20);not null" json:"role"`
	Active           bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
