package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task is a single to-do item owned by one user.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36"`
	UserID      string     `gorm:"size:36;index:idx_task_user_created,priority:1;not null"`
	Title       string     `gorm:"size:200;not null"`
	Description string     `gorm:"size:1000;not null;default:''"`
	Completed   bool       `gorm:"not null;default:false"`
	Priority    string     `gorm:"size:8;not null;default:Medium"`
	DueDate     *time.Time
	CreatedAt   time.Time `gorm:"index:idx_task_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

// ValidPriority reports whether p is one of Low / Medium / High.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
