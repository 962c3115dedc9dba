// Package testutil provides a fully wired API backed by a throwaway database.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"flowtasks/internal/config"
	"flowtasks/internal/database"
	"flowtasks/internal/models"
	"flowtasks/internal/router"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret"

// API bundles the router with the database it serves.
type API struct {
	Handler http.Handler
	DB      *gorm.DB
	Config  *config.Config
	t       *testing.T
}

// NewAPI migrates a fresh sqlite database under t.TempDir() and builds the router.
func NewAPI(t *testing.T) *API {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")},
		JWT:      config.JWTConfig{Secret: JWTSecret, Issuer: "flowtasks-test", ExpireDays: 1},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Init(cfg.Database, log)
	if err != nil {
		t.Fatalf("database.Init: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("database.AutoMigrate: %v", err)
	}

	return &API{
		Handler: router.SetupRouter(cfg, db, log),
		DB:      db,
		Config:  cfg,
		t:       t,
	}
}

// NewServer starts an httptest server around a fresh API.
func NewServer(t *testing.T) (*httptest.Server, *API) {
	t.Helper()
	api := NewAPI(t)
	srv := httptest.NewServer(api.Handler)
	t.Cleanup(srv.Close)
	return srv, api
}

// CreateUser inserts an account directly and returns it with a valid token.
func (a *API) CreateUser(name, email, password, role string) (models.User, string) {
	a.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		a.t.Fatalf("hash password: %v", err)
	}
	u := models.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := a.DB.Create(&u).Error; err != nil {
		a.t.Fatalf("create user: %v", err)
	}
	token, err := util.NewTokenManager(JWTSecret, "flowtasks-test", time.Hour).Issue(u.ID)
	if err != nil {
		a.t.Fatalf("generate token: %v", err)
	}
	return u, token
}

// Do sends a JSON request through the router and returns the recorder.
func (a *API) Do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	return rr
}

// Envelope mirrors the API response wrapper for decoding in tests.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// Decode parses the envelope and, when out is non-nil, its data.
func Decode(t *testing.T, rr *httptest.ResponseRecorder, out any) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v body=%s", err, rr.Body.String())
		}
	}
	return env
}
