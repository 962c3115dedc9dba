package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"flowtasks/internal/dto"
	"flowtasks/internal/middleware"
	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler 负责登录/注册相关接口
type AuthHandler struct {
	DB         *gorm.DB
	Tokens     *util.TokenManager
	BcryptCost int
}

// NewAuthHandler 构造函数
func NewAuthHandler(db *gorm.DB, tokens *util.TokenManager, bcryptCost int) *AuthHandler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{DB: db, Tokens: tokens, BcryptCost: bcryptCost}
}

// ---------- 注册 ----------

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		util.Error(c, http.StatusBadRequest, "Please provide name, email and password")
		return
	}
	if err := util.ValidateEmail(req.Email); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		slog.Error("register: count users", "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		slog.Error("register: hash password", "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		slog.Error("register: create user", "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	h.respondWithToken(c, http.StatusCreated, "User registered successfully", &user)
}

// ---------- 登录 ----------

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		util.Error(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, "Invalid email or password")
		} else {
			slog.Error("login: lookup user", "err", err)
			util.Error(c, http.StatusInternalServerError, "Server Error")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithToken(c, http.StatusOK, "Login successful", &user)
}

// Profile 返回当前登录用户信息（需要经过 AuthMiddleware）
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}
	util.Success(c, toProfile(user))
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, msg string, user *models.User) {
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		slog.Error("generate token", "user_id", user.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, status, msg, dto.AuthResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	})
}

func toProfile(u *models.User) dto.Profile {
	return dto.Profile{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}
