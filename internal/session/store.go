// Package session holds the client's authentication state and persists it
// across process restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"flowtasks/internal/client"
	"flowtasks/internal/dto"
	"flowtasks/internal/models"
)

const (
	loginFailed    = "Login failed"
	registerFailed = "Registration failed"
)

// Session is an authenticated identity. A Store hands out copies only.
type Session struct {
	UserID string `json:"userId" yaml:"userId"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Role   string `json:"role" yaml:"role"`
	Token  string `json:"-" yaml:"-"`
}

func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Result is the outcome of Login and Register.
type Result struct {
	Success bool
	Message string
}

// AuthAPI is the part of the transport client the store needs.
// Profile must authenticate with Store.Token.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (dto.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (dto.AuthResponse, error)
	Profile(ctx context.Context) (dto.Profile, error)
}

type Store struct {
	api     AuthAPI
	storage Storage
	log     *slog.Logger

	mu      sync.RWMutex
	token   string
	current *Session
	loading bool
}

func NewStore(api AuthAPI, storage Storage, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{api: api, storage: storage, log: log}
}

// Attach makes s the token source of c and routes its 401s to Invalidate.
func (s *Store) Attach(c *client.Client) {
	c.SetTokenSource(s.Token)
	c.OnUnauthorized(s.Invalidate)
}

// Initialize rehydrates a persisted session and validates it against the
// profile endpoint. A rejected candidate leaves the store unauthenticated
// with the persisted credentials erased, unless a Login or Register replaced
// it meanwhile. It reports whether a session is active.
func (s *Store) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, snapshot, ok := s.readPersisted()
	if !ok {
		s.clear()
		return false
	}

	// the candidate token is served to the transport during validation,
	// but no session is visible until the server accepts it
	s.mu.Lock()
	s.token = token
	s.current = nil
	s.mu.Unlock()

	p, err := s.api.Profile(ctx)
	if err != nil {
		s.log.Info("persisted session rejected", "email", snapshot.Email, "kind", client.KindOf(err), "err", err)
		// a login that finished while validating keeps its session
		if !s.clearIf(token) {
			return s.Current() != nil
		}
		return false
	}

	sess := &Session{UserID: p.UserID, Name: p.Name, Email: p.Email, Role: p.Role, Token: token}
	s.mu.Lock()
	if s.token != token {
		// logged out or replaced while validating
		s.mu.Unlock()
		return s.Current() != nil
	}
	s.current = sess
	s.mu.Unlock()
	s.persist(sess)
	return true
}

func (s *Store) readPersisted() (string, Session, bool) {
	var snapshot Session

	rawToken, err := s.storage.Get(TokenKey)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			s.log.Warn("read persisted token", "err", err)
		}
		return "", snapshot, false
	}
	rawUser, err := s.storage.Get(UserKey)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			s.log.Warn("read persisted user", "err", err)
		}
		return "", snapshot, false
	}
	if err := json.Unmarshal(rawUser, &snapshot); err != nil {
		s.log.Warn("decode persisted user", "err", err)
		return "", snapshot, false
	}
	token := string(rawToken)
	if token == "" {
		return "", snapshot, false
	}
	return token, snapshot, true
}

// Loading reports whether Initialize is still running.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Login(ctx context.Context, email, password string) Result {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return Result{Message: client.MessageOr(err, loginFailed)}
	}
	s.establish(resp)
	return Result{Success: true}
}

func (s *Store) Register(ctx context.Context, name, email, password string) Result {
	resp, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return Result{Message: client.MessageOr(err, registerFailed)}
	}
	s.establish(resp)
	return Result{Success: true}
}

func (s *Store) establish(resp dto.AuthResponse) {
	sess := &Session{
		UserID: resp.UserID,
		Name:   resp.Name,
		Email:  resp.Email,
		Role:   resp.Role,
		Token:  resp.Token,
	}
	s.mu.Lock()
	s.token = sess.Token
	s.current = sess
	s.mu.Unlock()
	s.persist(sess)
}

// persist failures are logged only; the in-memory session stays valid.
func (s *Store) persist(sess *Session) {
	user, err := json.Marshal(sess)
	if err != nil {
		s.log.Error("encode session", "err", err)
		return
	}
	if err := s.storage.Set(TokenKey, []byte(sess.Token)); err != nil {
		s.log.Error("persist token", "err", err)
		return
	}
	if err := s.storage.Set(UserKey, user); err != nil {
		s.log.Error("persist user", "err", err)
	}
}

// Logout clears the session and the persisted credentials. No network call.
func (s *Store) Logout() {
	s.clear()
}

// Invalidate logs out if token is still the active credential. A rejection
// of a token that has since been replaced is ignored.
func (s *Store) Invalidate(token string) {
	if token == "" {
		return
	}
	if s.clearIf(token) {
		s.log.Info("token rejected, logging out")
	}
}

func (s *Store) clear() {
	s.mu.Lock()
	s.token = ""
	s.current = nil
	s.mu.Unlock()
	s.erase()
}

// clearIf clears the session only while token is the active credential.
func (s *Store) clearIf(token string) bool {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.current = nil
	s.mu.Unlock()
	s.erase()
	return true
}

func (s *Store) erase() {
	if err := s.storage.Delete(TokenKey); err != nil {
		s.log.Error("erase token", "err", err)
	}
	if err := s.storage.Delete(UserKey); err != nil {
		s.log.Error("erase user", "err", err)
	}
}

// Current returns a copy of the active session, or nil.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token returns the credential requests should carry, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
