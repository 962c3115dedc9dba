package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"flowtasks/internal/client"
	"flowtasks/internal/dto"
	"flowtasks/internal/models"
	"flowtasks/internal/session"
	"flowtasks/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAuth struct {
	loginResp   dto.AuthResponse
	loginErr    error
	profile     dto.Profile
	profileErr  error
	profileCall int

	// during runs inside Profile, before it returns
	during func()
}

func (f *fakeAuth) Login(context.Context, string, string) (dto.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Register(context.Context, string, string, string) (dto.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Profile(context.Context) (dto.Profile, error) {
	f.profileCall++
	if f.during != nil {
		f.during()
	}
	return f.profile, f.profileErr
}

func seed(t *testing.T, st session.Storage, token string) {
	t.Helper()
	user, _ := json.Marshal(session.Session{UserID: "u1", Name: "Ann", Email: "ann@x.com", Role: models.RoleUser})
	if err := st.Set(session.TokenKey, []byte(token)); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(session.UserKey, user); err != nil {
		t.Fatal(err)
	}
}

func assertErased(t *testing.T, st session.Storage) {
	t.Helper()
	for _, k := range []string{session.TokenKey, session.UserKey} {
		if _, err := st.Get(k); !errors.Is(err, session.ErrNotExist) {
			t.Errorf("%s still persisted (err=%v)", k, err)
		}
	}
}

func TestInitializeRejectedToken(t *testing.T) {
	st := session.NewMemoryStore()
	seed(t, st, "stale")
	api := &fakeAuth{profileErr: &client.Error{Kind: client.KindAuth, Status: http.StatusUnauthorized}}
	s := session.NewStore(api, st, discard)

	if s.Initialize(context.Background()) {
		t.Fatal("Initialize reported an active session")
	}
	if s.Current() != nil || s.Token() != "" {
		t.Errorf("session not cleared: %+v %q", s.Current(), s.Token())
	}
	assertErased(t, st)
}

func TestInitializeNetworkFailureClears(t *testing.T) {
	st := session.NewMemoryStore()
	seed(t, st, "tok")
	api := &fakeAuth{profileErr: &client.Error{Kind: client.KindNetwork}}
	s := session.NewStore(api, st, discard)

	if s.Initialize(context.Background()) {
		t.Fatal("Initialize reported an active session")
	}
	assertErased(t, st)
}

func TestInitializeRejectionKeepsNewerLogin(t *testing.T) {
	for _, kind := range []client.Kind{client.KindAuth, client.KindNetwork} {
		t.Run(kind.String(), func(t *testing.T) {
			st := session.NewMemoryStore()
			seed(t, st, "stale")
			api := &fakeAuth{
				loginResp:  dto.AuthResponse{Token: "new", UserID: "u2", Name: "Bob", Email: "bob@x.com", Role: models.RoleUser},
				profileErr: &client.Error{Kind: kind},
			}
			s := session.NewStore(api, st, discard)
			api.during = func() {
				if res := s.Login(context.Background(), "bob@x.com", "secret1"); !res.Success {
					t.Errorf("Login = %+v", res)
				}
			}

			if !s.Initialize(context.Background()) {
				t.Fatal("Initialize dropped the newer session")
			}
			if cur := s.Current(); cur == nil || cur.Token != "new" || cur.Email != "bob@x.com" {
				t.Fatalf("current = %+v", cur)
			}
			if tok, err := st.Get(session.TokenKey); err != nil || string(tok) != "new" {
				t.Errorf("persisted token = %q, %v", tok, err)
			}
		})
	}
}

func TestInitializeAcceptedToken(t *testing.T) {
	st := session.NewMemoryStore()
	seed(t, st, "good")
	api := &fakeAuth{profile: dto.Profile{UserID: "u1", Name: "Ann B", Email: "ann@x.com", Role: models.RoleAdmin}}
	s := session.NewStore(api, st, discard)

	if !s.Initialize(context.Background()) {
		t.Fatal("Initialize reported no session")
	}
	cur := s.Current()
	if cur == nil || cur.Name != "Ann B" || cur.Token != "good" || !cur.IsAdmin() {
		t.Fatalf("current = %+v", cur)
	}
	if s.Loading() {
		t.Error("still loading after Initialize")
	}
}

func TestInitializeWithoutPersistedState(t *testing.T) {
	st := session.NewMemoryStore()
	// a token without a profile snapshot is not enough
	_ = st.Set(session.TokenKey, []byte("orphan"))
	api := &fakeAuth{}
	s := session.NewStore(api, st, discard)

	if s.Initialize(context.Background()) {
		t.Fatal("Initialize reported an active session")
	}
	if api.profileCall != 0 {
		t.Errorf("profile called %d times", api.profileCall)
	}
	assertErased(t, st)
}

func TestLoginFailureKeepsSession(t *testing.T) {
	st := session.NewMemoryStore()
	api := &fakeAuth{loginResp: dto.AuthResponse{Token: "t1", UserID: "u1", Name: "Ann", Email: "ann@x.com", Role: models.RoleUser}}
	s := session.NewStore(api, st, discard)

	if res := s.Login(context.Background(), "ann@x.com", "secret1"); !res.Success {
		t.Fatalf("Login = %+v", res)
	}

	api.loginErr = &client.Error{Kind: client.KindAuth, Status: 401, Message: "Invalid email or password"}
	res := s.Login(context.Background(), "ann@x.com", "wrong")
	if res.Success || res.Message != "Invalid email or password" {
		t.Fatalf("Login = %+v", res)
	}
	if cur := s.Current(); cur == nil || cur.Token != "t1" {
		t.Errorf("session changed after failed login: %+v", cur)
	}

	api.loginErr = &client.Error{Kind: client.KindNetwork}
	if res := s.Register(context.Background(), "A", "a@x.com", "secret1"); res.Message != "Registration failed" {
		t.Errorf("register fallback = %q", res.Message)
	}
	if res := s.Login(context.Background(), "a@x.com", "secret1"); res.Message != "Login failed" {
		t.Errorf("login fallback = %q", res.Message)
	}
}

func TestLogoutErasesPersisted(t *testing.T) {
	st := session.NewMemoryStore()
	api := &fakeAuth{loginResp: dto.AuthResponse{Token: "t1", UserID: "u1", Role: models.RoleUser}}
	s := session.NewStore(api, st, discard)
	s.Login(context.Background(), "ann@x.com", "secret1")

	if tok, err := st.Get(session.TokenKey); err != nil || string(tok) != "t1" {
		t.Fatalf("token not persisted: %q %v", tok, err)
	}

	s.Logout()
	if s.Current() != nil || s.Token() != "" {
		t.Error("session survived logout")
	}
	assertErased(t, st)
}

func TestInvalidateIgnoresStaleToken(t *testing.T) {
	st := session.NewMemoryStore()
	api := &fakeAuth{loginResp: dto.AuthResponse{Token: "new", UserID: "u1", Role: models.RoleUser}}
	s := session.NewStore(api, st, discard)
	s.Login(context.Background(), "ann@x.com", "secret1")

	s.Invalidate("old")
	if s.Current() == nil {
		t.Fatal("stale rejection logged the user out")
	}
	s.Invalidate("new")
	if s.Current() != nil {
		t.Fatal("current token rejection did not log out")
	}
}

func newFileStore(t *testing.T, dir, passphrase string) *session.FileStore {
	t.Helper()
	fs, err := session.NewFileStore(dir, passphrase)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStoreEncrypted(t *testing.T) {
	dir := t.TempDir()
	fs := newFileStore(t, dir, "passphrase")

	if err := fs.Set(session.TokenKey, []byte("secret-token")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, session.TokenKey))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "secret-token" {
		t.Fatal("token stored in plain text")
	}

	got, err := fs.Get(session.TokenKey)
	if err != nil || string(got) != "secret-token" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	wrong := newFileStore(t, dir, "other")
	if _, err := wrong.Get(session.TokenKey); err == nil {
		t.Error("Get with wrong key succeeded")
	}

	if err := fs.Delete(session.TokenKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Get(session.TokenKey); !errors.Is(err, session.ErrNotExist) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := fs.Delete(session.TokenKey); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var st session.MemoryStore
	if _, err := st.Get(session.TokenKey); !errors.Is(err, session.ErrNotExist) {
		t.Fatalf("Get on empty store: %v", err)
	}
	if err := st.Set(session.TokenKey, []byte("tok")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := st.Get(session.TokenKey); err != nil || string(got) != "tok" {
		t.Errorf("Get = %q, %v", got, err)
	}
	if err := st.Delete(session.TokenKey); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestAgainstServer(t *testing.T) {
	srv, _ := testutil.NewServer(t)
	dir := t.TempDir()
	ctx := context.Background()

	c := client.New(srv.URL+"/api", client.WithLogger(discard))
	s := session.NewStore(c, newFileStore(t, dir, ""), discard)
	s.Attach(c)

	if res := s.Register(ctx, "Ann", "ann@x.com", "secret1"); !res.Success {
		t.Fatalf("Register = %+v", res)
	}
	if res := s.Register(ctx, "Ann", "ann@x.com", "secret1"); res.Success || res.Message != "User already exists" {
		t.Fatalf("duplicate Register = %+v", res)
	}

	// a new process rehydrates from the same directory
	c2 := client.New(srv.URL+"/api", client.WithLogger(discard))
	s2 := session.NewStore(c2, newFileStore(t, dir, ""), discard)
	s2.Attach(c2)
	if !s2.Initialize(ctx) {
		t.Fatal("rehydration failed")
	}
	if cur := s2.Current(); cur == nil || cur.Email != "ann@x.com" {
		t.Fatalf("current = %+v", cur)
	}

	// a token rejected by a later call logs the user out
	if err := os.WriteFile(filepath.Join(dir, session.TokenKey), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	c3 := client.New(srv.URL+"/api", client.WithLogger(discard))
	s3 := session.NewStore(c3, newFileStore(t, dir, ""), discard)
	s3.Attach(c3)
	if s3.Initialize(ctx) {
		t.Fatal("garbage token accepted")
	}
	if _, err := os.Stat(filepath.Join(dir, session.TokenKey)); !os.IsNotExist(err) {
		t.Errorf("token file not erased: %v", err)
	}

	s2.Logout()
	if _, err := c2.ListTasks(ctx); client.KindOf(err) != client.KindAuth {
		t.Errorf("request after logout kind = %v", client.KindOf(err))
	}
}
