package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents application user.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:64;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"` // stored lower-cased
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:16;index;not null;default:user"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// BeforeCreate assigns the opaque identifier.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
