package router_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"flowtasks/internal/dto"
	"flowtasks/internal/models"
	"flowtasks/internal/testutil"

	"github.com/xuri/excelize/v2"
)

func TestHealth(t *testing.T) {
	api := testutil.NewAPI(t)

	rr := api.Do(http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if env := testutil.Decode(t, rr, nil); !env.Success {
		t.Errorf("success=false body=%s", rr.Body.String())
	}
}

func TestUnknownRoute_404(t *testing.T) {
	api := testutil.NewAPI(t)

	rr := api.Do(http.MethodGet, "/api/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rr.Code)
	}
	if env := testutil.Decode(t, rr, nil); env.Success || env.Message != "Route not found" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRegisterLoginProfile(t *testing.T) {
	api := testutil.NewAPI(t)

	rr := api.Do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name: "Ann", Email: "Ann@X.com", Password: "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	var reg dto.AuthResponse
	testutil.Decode(t, rr, &reg)
	if reg.Token == "" || reg.UserID == "" {
		t.Fatalf("register data = %+v", reg)
	}
	if reg.Email != "ann@x.com" || reg.Role != models.RoleUser {
		t.Errorf("register data = %+v, want lower-cased email and user role", reg)
	}

	rr = api.Do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	var login dto.AuthResponse
	testutil.Decode(t, rr, &login)
	if login.UserID != reg.UserID {
		t.Errorf("login userId=%q, want %q", login.UserID, reg.UserID)
	}

	rr = api.Do(http.MethodGet, "/api/auth/profile", login.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile status=%d body=%s", rr.Code, rr.Body.String())
	}
	var prof dto.Profile
	testutil.Decode(t, rr, &prof)
	if prof.UserID != reg.UserID || prof.Name != "Ann" {
		t.Errorf("profile = %+v", prof)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("profile leaks password field")
	}
}

func TestRegister_Validation(t *testing.T) {
	api := testutil.NewAPI(t)
	api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)

	cases := []struct {
		name string
		body any
	}{
		{"missing name", dto.RegisterRequest{Email: "b@x.com", Password: "secret1"}},
		{"bad email", dto.RegisterRequest{Name: "B", Email: "nope", Password: "secret1"}},
		{"short password", dto.RegisterRequest{Name: "B", Email: "b@x.com", Password: "123"}},
		{"duplicate", dto.RegisterRequest{Name: "A", Email: "ANN@x.com", Password: "secret1"}},
		{"bad json", "{bad json}"},
	}
	for _, tc := range cases {
		rr := api.Do(http.MethodPost, "/api/auth/register", "", tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400 body=%s", tc.name, rr.Code, rr.Body.String())
		}
	}
}

func TestLogin_BadCredentials_401(t *testing.T) {
	api := testutil.NewAPI(t)
	api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)

	for _, body := range []dto.LoginRequest{
		{Email: "ann@x.com", Password: "wrong-pass"},
		{Email: "ghost@x.com", Password: "secret1"},
	} {
		rr := api.Do(http.MethodPost, "/api/auth/login", "", body)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("login %s: status=%d, want 401", body.Email, rr.Code)
		}
		if env := testutil.Decode(t, rr, nil); env.Message != "Invalid email or password" {
			t.Errorf("message = %q", env.Message)
		}
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	api := testutil.NewAPI(t)

	for _, path := range []string{"/api/auth/profile", "/api/tasks", "/api/admin/users"} {
		rr := api.Do(http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status=%d, want 401", path, rr.Code)
		}
		rr = api.Do(http.MethodGet, path, "garbage", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s with bad token: status=%d, want 401", path, rr.Code)
		}
	}
}

func TestToken_DeletedUser_401(t *testing.T) {
	api := testutil.NewAPI(t)
	u, token := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)
	api.DB.Delete(&u)

	rr := api.Do(http.MethodGet, "/api/auth/profile", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rr.Code)
	}
}

func createTask(t *testing.T, api *testutil.API, token string, req dto.CreateTaskRequest) dto.TaskResponse {
	t.Helper()
	rr := api.Do(http.MethodPost, "/api/tasks", token, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out dto.TaskResponse
	testutil.Decode(t, rr, &out)
	return out
}

func TestTasks_CRUD(t *testing.T) {
	api := testutil.NewAPI(t)
	_, token := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)

	first := createTask(t, api, token, dto.CreateTaskRequest{Title: "  Buy milk  "})
	if first.Title != "Buy milk" || first.Priority != models.PriorityMedium || first.Completed || first.DueDate != nil {
		t.Errorf("defaults not applied: %+v", first)
	}
	time.Sleep(10 * time.Millisecond)
	second := createTask(t, api, token, dto.CreateTaskRequest{
		Title: "File taxes", Description: "before April", Priority: models.PriorityHigh, DueDate: "2030-04-15",
	})
	if second.DueDate == nil || second.DueDate.Format("2006-01-02") != "2030-04-15" {
		t.Errorf("dueDate = %v", second.DueDate)
	}

	rr := api.Do(http.MethodGet, "/api/tasks", token, nil)
	var list []dto.TaskResponse
	env := testutil.Decode(t, rr, &list)
	if len(list) != 2 || env.Count == nil || *env.Count != 2 {
		t.Fatalf("list = %+v count=%v", list, env.Count)
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("list not newest first: %s, %s", list[0].Title, list[1].Title)
	}

	rr = api.Do(http.MethodGet, "/api/tasks/"+first.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	// partial update touches only the given fields
	rr = api.Do(http.MethodPut, "/api/tasks/"+second.ID, token, map[string]any{"completed": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated dto.TaskResponse
	testutil.Decode(t, rr, &updated)
	if !updated.Completed || updated.Title != "File taxes" || updated.Priority != models.PriorityHigh || updated.DueDate == nil {
		t.Errorf("partial update clobbered fields: %+v", updated)
	}

	// explicit null clears the due date
	rr = api.Do(http.MethodPut, "/api/tasks/"+second.ID, token, `{"dueDate": null}`)
	testutil.Decode(t, rr, &updated)
	if updated.DueDate != nil {
		t.Errorf("dueDate = %v, want cleared", updated.DueDate)
	}

	rr = api.Do(http.MethodGet, "/api/tasks?status=completed", token, nil)
	testutil.Decode(t, rr, &list)
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("completed filter = %+v", list)
	}
	rr = api.Do(http.MethodGet, "/api/tasks?status=active", token, nil)
	testutil.Decode(t, rr, &list)
	if len(list) != 1 || list[0].ID != first.ID {
		t.Errorf("active filter = %+v", list)
	}

	rr = api.Do(http.MethodDelete, "/api/tasks/"+first.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = api.Do(http.MethodGet, "/api/tasks/"+first.ID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get deleted status=%d, want 404", rr.Code)
	}
}

func TestTasks_Validation(t *testing.T) {
	api := testutil.NewAPI(t)
	_, token := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)
	task := createTask(t, api, token, dto.CreateTaskRequest{Title: "T"})

	bad := []dto.CreateTaskRequest{
		{Title: "   "},
		{Title: "T", Priority: "Urgent"},
		{Title: "T", DueDate: "tomorrow"},
		{Title: strings.Repeat("x", 201)},
	}
	for _, req := range bad {
		if rr := api.Do(http.MethodPost, "/api/tasks", token, req); rr.Code != http.StatusBadRequest {
			t.Errorf("create %+v: status=%d, want 400", req, rr.Code)
		}
	}

	for _, body := range []string{`{"title": ""}`, `{"priority": "Huge"}`, `{"dueDate": "soon"}`} {
		if rr := api.Do(http.MethodPut, "/api/tasks/"+task.ID, token, body); rr.Code != http.StatusBadRequest {
			t.Errorf("update %s: status=%d, want 400", body, rr.Code)
		}
	}
}

func TestTasks_OwnershipAndMissing(t *testing.T) {
	api := testutil.NewAPI(t)
	_, annToken := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)
	_, bobToken := api.CreateUser("Bob", "bob@x.com", "secret1", models.RoleUser)

	task := createTask(t, api, annToken, dto.CreateTaskRequest{Title: "Ann's"})

	if rr := api.Do(http.MethodGet, "/api/tasks", bobToken, nil); rr.Code == http.StatusOK {
		var list []dto.TaskResponse
		testutil.Decode(t, rr, &list)
		if len(list) != 0 {
			t.Errorf("bob sees %d of ann's tasks", len(list))
		}
	}

	checks := []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]any{"completed": true}},
		{http.MethodDelete, nil},
	}
	for _, c := range checks {
		rr := api.Do(c.method, "/api/tasks/"+task.ID, bobToken, c.body)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s other's task: status=%d, want 403", c.method, rr.Code)
		}
		rr = api.Do(c.method, "/api/tasks/does-not-exist", annToken, c.body)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s missing task: status=%d, want 404", c.method, rr.Code)
		}
	}
}

func TestTasks_Export(t *testing.T) {
	api := testutil.NewAPI(t)
	_, token := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)
	createTask(t, api, token, dto.CreateTaskRequest{Title: "Buy milk", DueDate: "2030-01-02"})

	rr := api.Do(http.MethodGet, "/api/tasks/export/csv", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Title,Description") || !strings.Contains(body, "Buy milk,,Medium,false,2030-01-02") {
		t.Errorf("csv body = %q", body)
	}

	rr = api.Do(http.MethodGet, "/api/tasks/export/xlsx", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("xlsx status=%d", rr.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue("Tasks", "A2")
	if err != nil || v != "Buy milk" {
		t.Errorf("A2 = %q, %v; want Buy milk", v, err)
	}
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	api := testutil.NewAPI(t)
	_, token := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)

	rr := api.Do(http.MethodGet, "/api/admin/users", token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", rr.Code)
	}
	if env := testutil.Decode(t, rr, nil); env.Message != "Not authorized as an admin" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestAdmin_ManageUsers(t *testing.T) {
	api := testutil.NewAPI(t)
	admin, adminToken := api.CreateUser("Root", "root@x.com", "secret1", models.RoleAdmin)
	ann, annToken := api.CreateUser("Ann", "ann@x.com", "secret1", models.RoleUser)
	createTask(t, api, annToken, dto.CreateTaskRequest{Title: "Ann's"})

	rr := api.Do(http.MethodGet, "/api/admin/users", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if strings.Contains(strings.ToLower(rr.Body.String()), "password") {
		t.Error("user list leaks password field")
	}
	var users []dto.UserResponse
	testutil.Decode(t, rr, &users)
	if len(users) != 2 {
		t.Fatalf("users = %+v", users)
	}

	// reset password
	rr = api.Do(http.MethodPut, "/api/admin/users/"+ann.ID+"/password", adminToken, dto.PasswordRequest{Password: "123"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("short password status=%d, want 400", rr.Code)
	}
	rr = api.Do(http.MethodPut, "/api/admin/users/"+ann.ID+"/password", adminToken, dto.PasswordRequest{Password: "newpass1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = api.Do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ann@x.com", Password: "newpass1"})
	if rr.Code != http.StatusOK {
		t.Errorf("login with reset password status=%d", rr.Code)
	}
	rr = api.Do(http.MethodPut, "/api/admin/users/nobody/password", adminToken, dto.PasswordRequest{Password: "newpass1"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("reset missing user status=%d, want 404", rr.Code)
	}

	// delete
	rr = api.Do(http.MethodDelete, "/api/admin/users/"+admin.ID, adminToken, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("self delete status=%d, want 400", rr.Code)
	}
	rr = api.Do(http.MethodDelete, "/api/admin/users/"+ann.ID, adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}
	var remaining int64
	api.DB.Model(&models.Task{}).Where("user_id = ?", ann.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("%d tasks left for deleted user", remaining)
	}
	rr = api.Do(http.MethodDelete, "/api/admin/users/"+ann.ID, adminToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("delete again status=%d, want 404", rr.Code)
	}
	rr = api.Do(http.MethodGet, "/api/tasks", annToken, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("deleted user's token status=%d, want 401", rr.Code)
	}
}
