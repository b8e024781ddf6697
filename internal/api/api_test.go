package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkoblar/inventar/internal/db"
	"github.com/mkoblar/inventar/internal/model"
	"github.com/mkoblar/inventar/internal/store"
)

type testServer struct {
	*httptest.Server
	db *sql.DB

	storekeeperToken string
	employeeToken    string
	employeeID       int64
}

// newTestServer starts the API against an in-memory database with one
// storekeeper and one employee already logged in.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	accessSecret, refreshSecret, err := store.GetAuthSecrets(ctx, database)
	if err != nil {
		t.Fatalf("GetAuthSecrets() error = %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if _, err := store.CreateUser(ctx, database, "Store", "Keeper", "keeper@example.com", string(hash), model.RoleStorekeeper); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	employee, err := store.CreateUser(ctx, database, "Eva", "Employee", "eva@example.com", string(hash), model.RoleEmployee)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	server := httptest.NewServer(NewRouter(database, accessSecret, refreshSecret))
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, db: database, employeeID: employee.ID}
	ts.storekeeperToken = ts.login(t, "keeper@example.com", "password123")
	ts.employeeToken = ts.login(t, "eva@example.com", "password123")
	return ts
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/users/login", "",
		map[string]string{"email": email, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return body.AccessToken
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func (ts *testServer) createItem(t *testing.T, name string, quantity int) int64 {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/items", ts.storekeeperToken,
		map[string]any{"name": name, "quantity": quantity})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item status = %d", resp.StatusCode)
	}
	var body struct {
		Item model.Item `json:"item"`
	}
	decodeBody(t, resp, &body)
	return body.Item.ID
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"first_name": "New",
		"last_name":  "Person",
		"email":      "new@example.com",
		"password":   "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	var registered struct {
		User model.User `json:"user"`
	}
	decodeBody(t, resp, &registered)
	if registered.User.Role != model.RoleEmployee {
		t.Errorf("registered role = %q, want %q", registered.User.Role, model.RoleEmployee)
	}

	// Duplicate email is rejected.
	resp = ts.request(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"first_name": "New",
		"last_name":  "Person",
		"email":      "new@example.com",
		"password":   "longenough",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want 400", resp.StatusCode)
	}

	token := ts.login(t, "new@example.com", "longenough")

	resp = ts.request(t, http.MethodGet, "/api/users/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	var profile model.User
	decodeBody(t, resp, &profile)
	if profile.Email != "new@example.com" {
		t.Errorf("profile email = %q", profile.Email)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing fields", map[string]string{"email": "x@example.com", "password": "longenough"}},
		{"bad email", map[string]string{"first_name": "A", "last_name": "B", "email": "nope", "password": "longenough"}},
		{"short password", map[string]string{"first_name": "A", "last_name": "B", "email": "a@example.com", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/api/users/register", "", tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/users/login", "",
		map[string]string{"email": "eva@example.com", "password": "wrongwrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/users/login", "",
		map[string]string{"email": "eva@example.com", "password": "password123"})
	var session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, resp, &session)

	resp = ts.request(t, http.MethodPost, "/api/users/refresh-token", "",
		map[string]string{"refresh_token": session.RefreshToken})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &refreshed)
	if refreshed.AccessToken == "" {
		t.Error("refresh returned no access token")
	}

	resp = ts.request(t, http.MethodPost, "/api/users/logout", session.AccessToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	// The stored refresh token was cleared at logout.
	resp = ts.request(t, http.MethodPost, "/api/users/refresh-token", "",
		map[string]string{"refresh_token": session.RefreshToken})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("refresh after logout status = %d, want 403", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/items", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodGet, "/api/items", "not-a-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", resp.StatusCode)
	}
}

func TestStorekeeperOnlyRoutes(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t, "Laptop", 2)

	writes := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/items", map[string]any{"name": "X", "quantity": 1}},
		{http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), map[string]any{"quantity": 3}},
		{http.MethodDelete, fmt.Sprintf("/api/items/%d", itemID), nil},
		{http.MethodPost, fmt.Sprintf("/api/items/%d/assign", itemID), map[string]any{"user_id": ts.employeeID}},
		{http.MethodPut, fmt.Sprintf("/api/items/%d/return", itemID), map[string]any{"user_id": ts.employeeID}},
	}
	for _, w := range writes {
		resp := ts.request(t, w.method, w.path, ts.employeeToken, w.body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s %s as employee: status = %d, want 403", w.method, w.path, resp.StatusCode)
		}
	}
}

func TestItemCRUDOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	itemID := ts.createItem(t, "Monitor", 4)

	resp := ts.request(t, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), ts.employeeToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get item status = %d", resp.StatusCode)
	}
	var detail struct {
		Item        model.Item         `json:"item"`
		Assignments []model.Assignment `json:"assignments"`
	}
	decodeBody(t, resp, &detail)
	if detail.Item.Name != "Monitor" || len(detail.Assignments) != 0 {
		t.Errorf("detail = %+v", detail)
	}

	resp = ts.request(t, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), ts.storekeeperToken,
		map[string]any{"quantity": 9})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	var updated struct {
		Item model.Item `json:"item"`
	}
	decodeBody(t, resp, &updated)
	if updated.Item.Quantity != 9 || updated.Item.Name != "Monitor" {
		t.Errorf("updated item = %+v", updated.Item)
	}

	resp = ts.request(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", itemID), ts.storekeeperToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), ts.employeeToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted item status = %d, want 404", resp.StatusCode)
	}
}

func TestListItemsUnknownFilter(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/items?color=red", ts.employeeToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAssignFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t, "Laptop", 2)

	// Nothing assigned yet.
	resp := ts.request(t, http.MethodGet, "/api/items/assigned", ts.employeeToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("empty assigned list status = %d, want 404", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/assign", itemID), ts.storekeeperToken,
		map[string]any{"user_id": ts.employeeID, "return_date": "2026-12-31"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", resp.StatusCode)
	}
	var assigned struct {
		Item model.Item `json:"item"`
	}
	decodeBody(t, resp, &assigned)
	if assigned.Item.Quantity != 1 {
		t.Errorf("quantity after assign = %d, want 1", assigned.Item.Quantity)
	}

	resp = ts.request(t, http.MethodGet, "/api/items/assigned", ts.employeeToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assigned list status = %d", resp.StatusCode)
	}
	var assignments []model.Assignment
	decodeBody(t, resp, &assignments)
	if len(assignments) != 1 || assignments[0].ItemName != "Laptop" {
		t.Errorf("assignments = %+v", assignments)
	}

	resp = ts.request(t, http.MethodPut, fmt.Sprintf("/api/items/%d/return", itemID), ts.storekeeperToken,
		map[string]any{"user_id": ts.employeeID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("return status = %d", resp.StatusCode)
	}
	var returned struct {
		Item model.Item `json:"item"`
	}
	decodeBody(t, resp, &returned)
	if returned.Item.Quantity != 2 {
		t.Errorf("quantity after return = %d, want 2", returned.Item.Quantity)
	}
}

func TestAssignErrorsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	emptyID := ts.createItem(t, "Gone", 0)

	resp := ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/assign", emptyID), ts.storekeeperToken,
		map[string]any{"user_id": ts.employeeID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("assign empty stock status = %d, want 400", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPost, "/api/items/9999/assign", ts.storekeeperToken,
		map[string]any{"user_id": ts.employeeID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("assign missing item status = %d, want 404", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/assign", emptyID), ts.storekeeperToken,
		map[string]any{"user_id": 9999})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("assign to missing user status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t, "Keyboard", 1)
	emptyID := ts.createItem(t, "Gone", 0)

	resp := ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/request", itemID), ts.employeeToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request status = %d", resp.StatusCode)
	}
	var created struct {
		Request model.Request `json:"request"`
	}
	decodeBody(t, resp, &created)
	if created.Request.Status != model.RequestStatusPending {
		t.Errorf("request status = %q", created.Request.Status)
	}

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/request", itemID), ts.employeeToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate request status = %d, want 400", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/request", emptyID), ts.employeeToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out-of-stock request status = %d, want 400", resp.StatusCode)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t, "Laptop", 1)

	resp := ts.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/assign", itemID), ts.storekeeperToken,
		map[string]any{"user_id": ts.employeeID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodGet, "/api/users/notifications", ts.employeeToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications status = %d", resp.StatusCode)
	}
	var inbox []model.Notification
	decodeBody(t, resp, &inbox)
	if len(inbox) != 1 || inbox[0].Message != "Assigned a new item: Laptop" {
		t.Errorf("inbox = %+v", inbox)
	}

	enabled := false
	resp = ts.request(t, http.MethodPost, "/api/users/notifications/settings", ts.employeeToken,
		map[string]any{"type": model.NotificationTypeAssignment, "enabled": enabled})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings status = %d", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPost, "/api/users/notifications/settings", ts.employeeToken,
		map[string]any{"type": "bogus", "enabled": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", resp.StatusCode)
	}
}
