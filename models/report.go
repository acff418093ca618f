package models

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	ID          uuid.UUID   `gorm:"primaryKey;type:uuid;not null;unique;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Date        time.Time   `gorm:"type:date;not null;index" json:"date"`
	Title       string      `gorm:"type:text;not null" json:"title"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	Attachments Attachments `gorm:"type:jsonb;not null;default:'[]'" json:"attachments"`
	CreatedAt   time.Time   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (r Report) GetID() uuid.UUID {
	return r.ID
}

func (r Report) GetCreatedAt() time.Time {
	return r.CreatedAt
}

func (r Report) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID != uuid.Nil && r.UserID == userID
}
