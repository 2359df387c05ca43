package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the auth account mirrored from the hosted auth provider. It is the last row
// removed when an account is deleted.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"size:255;index" json:"email"`
	Provider    string `gorm:"size:32;default:email" json:"provider"`
	DisplayName string `json:"display_name"`

	LastSignInAt *time.Time `json:"last_sign_in_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
