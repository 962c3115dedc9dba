package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"flowtasks/internal/dto"
	"flowtasks/internal/middleware"
	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminHandler exposes user management to administrators.
type AdminHandler struct {
	DB         *gorm.DB
	BcryptCost int
}

func NewAdminHandler(db *gorm.DB, bcryptCost int) *AdminHandler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminHandler{DB: db, BcryptCost: bcryptCost}
}

func toUserResp(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers 列出所有用户，最新注册的在前
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		slog.Error("list users", "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResp(&users[i]))
	}
	util.SuccessList(c, len(items), items)
}

// DeleteUser removes an account together with its tasks.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if me, ok := middleware.CurrentUser(c); ok && me.ID == id {
		util.Error(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("delete user", "id", id, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, http.StatusOK, "User removed", gin.H{})
}

// ResetPassword sets a new password for any user.
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	var req dto.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "User not found")
		} else {
			slog.Error("reset password: lookup", "id", c.Param("id"), "err", err)
			util.Error(c, http.StatusInternalServerError, "Server Error")
		}
		return
	}

	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		slog.Error("reset password: hash", "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}
	if err := h.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		slog.Error("reset password: update", "id", user.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, http.StatusOK, "User password updated successfully", gin.H{})
}
