package database

import (
	"errors"
	"fmt"
	"strings"

	"flowtasks/internal/config"
	"flowtasks/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedAdmin makes sure the configured bootstrap administrator exists.
// It returns true when a new account was created.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig, bcryptCost int) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return false, nil
	}
	if len(cfg.Password) < 6 {
		return false, fmt.Errorf("seed admin: password must be at least 6 characters")
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			if err := db.Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
				return false, fmt.Errorf("seed admin: promote: %w", err)
			}
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("seed admin: lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("seed admin: hash: %w", err)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Administrator"
	}
	admin := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("seed admin: create: %w", err)
	}
	return true, nil
}
