package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  string = "user"
	RoleAdmin string = "admin"
)

// Account mirrors the authenticated user of the auth service.
type Account struct {
	ID           uuid.UUID  `gorm:"primaryKey;type:uuid;not null;unique" json:"id"`
	Email        string     `gorm:"size:255;not null;index" json:"email"`
	Role         string     `gorm:"size:50;not null;default:user" json:"role"`
	WeeklyDigest *bool      `gorm:"not null;default:true" json:"weekly_digest"`
	LastSignInAt *time.Time `json:"-"`
	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"-"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"-"`
}

func (a Account) GetID() uuid.UUID {
	return a.ID
}

func (a Account) GetCreatedAt() time.Time {
	return a.CreatedAt
}

func (a Account) WantsDigest() bool {
	return a.WeeklyDigest == nil || *a.WeeklyDigest
}
