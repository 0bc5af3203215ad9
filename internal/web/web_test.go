package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/auth/storage/mem"
	"github.com/njimyasmine/user-management-api/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type response struct {
	Status int
	Body   map[string]any
	Raw    string
}

type WebSuite struct {
	suite.Suite
	clock  *clock
	server *Server
}

func TestWeb(t *testing.T) {
	suite.Run(t, new(WebSuite))
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (s *WebSuite) newServer(cfg config.Server) *Server {
	s.clock = &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	accounts, err := service.New(context.Background(), service.Config{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
	}, mem.New(), testLogger(), service.WithClock(s.clock.Now))
	s.Require().NoError(err)
	return New(accounts, cfg, testLogger())
}

func (s *WebSuite) SetupTest() {
	s.server = s.newServer(config.Server{})
}

func (s *WebSuite) do(method, path string, body any, header string) response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := s.server.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	r := response{Status: resp.StatusCode, Raw: string(raw)}
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &r.Body), string(raw))
	}
	return r
}

func (s *WebSuite) createUser(name, email, password string) string {
	r := s.do(http.MethodPost, "/users", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
	s.Require().Equal(http.StatusCreated, r.Status, r.Raw)
	return r.Body["id"].(string)
}

func (s *WebSuite) login(email, password string) string {
	r := s.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	s.Require().Equal(http.StatusOK, r.Status, r.Raw)
	return "Bearer " + r.Body["token"].(string)
}

func (s *WebSuite) TestHealth() {
	r := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, r.Status)
	s.Equal("ok", r.Body["status"])
}

func (s *WebSuite) TestCreateUser() {
	r := s.do(http.MethodPost, "/users", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret",
	}, "")
	s.Require().Equal(http.StatusCreated, r.Status)
	s.NotEmpty(r.Body["id"])
	s.Equal("Alice", r.Body["name"])
	s.Equal("alice@example.com", r.Body["email"])
	s.Equal("2024-05-01T12:00:00Z", r.Body["createdAt"])
	s.NotContains(r.Body, "passwordHash")
	s.NotContains(r.Body, "password")
	s.NotContains(r.Raw, "$2a$")

	got := s.do(http.MethodGet, "/users/"+r.Body["id"].(string), nil, "")
	s.Equal(http.StatusOK, got.Status)
	s.Equal(r.Body, got.Body)
}

func (s *WebSuite) TestCreateUserErrors() {
	s.createUser("Alice", "alice@example.com", "secret")

	tests := []struct {
		name        string
		body        any
		wantStatus  int
		wantMessage string
		wantErrors  []any
	}{
		{
			name:        "missing fields",
			body:        map[string]string{},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid input",
			wantErrors:  []any{"name is required", "email is required", "password is required"},
		},
		{
			name:        "malformed email",
			body:        map[string]string{"name": "Bob", "email": "bob", "password": "secret"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid email format",
		},
		{
			name:        "duplicate email",
			body:        map[string]string{"name": "Other", "email": "alice@example.com", "password": "secret"},
			wantStatus:  http.StatusConflict,
			wantMessage: service.ErrConflict.Error(),
		},
		{
			name:       "not json",
			body:       "just a string",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.do(http.MethodPost, "/users", tt.body, "")
			s.Equal(tt.wantStatus, r.Status, r.Raw)
			if tt.wantMessage != "" {
				s.Equal(tt.wantMessage, r.Body["message"])
			}
			if tt.wantErrors != nil {
				s.Equal(tt.wantErrors, r.Body["errors"])
			}
		})
	}

	list := s.do(http.MethodGet, "/users", nil, "")
	s.Equal(float64(1), list.Body["totalUsers"])
}

func (s *WebSuite) TestListUsers() {
	for i := 1; i <= 25; i++ {
		s.createUser(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i), "secret")
	}

	r := s.do(http.MethodGet, "/users?page=3&limit=10", nil, "")
	s.Require().Equal(http.StatusOK, r.Status)
	s.Equal(float64(3), r.Body["page"])
	s.Equal(float64(10), r.Body["limit"])
	s.Equal(float64(25), r.Body["totalUsers"])
	s.Equal(float64(3), r.Body["totalPages"])
	list := r.Body["users"].([]any)
	s.Require().Len(list, 5)
	s.Equal("user21", list[0].(map[string]any)["name"])
	s.NotContains(r.Raw, "passwordHash")

	r = s.do(http.MethodGet, "/users", nil, "")
	s.Equal(float64(1), r.Body["page"])
	s.Equal(float64(10), r.Body["limit"])
	s.Len(r.Body["users"], 10)

	r = s.do(http.MethodGet, "/users?page=100&limit=10", nil, "")
	s.Equal(http.StatusOK, r.Status)
	s.Equal([]any{}, r.Body["users"])
}

func (s *WebSuite) TestListUsersBadQuery() {
	for _, query := range []string{"page=abc", "page=0", "limit=-1", "limit=x", "page=1.5", "page=", "limit="} {
		r := s.do(http.MethodGet, "/users?"+query, nil, "")
		s.Equal(http.StatusBadRequest, r.Status, query)
		s.NotEmpty(r.Body["message"], query)
	}
}

func (s *WebSuite) TestGetUserNotFound() {
	for _, id := range []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "not-a-uuid"} {
		r := s.do(http.MethodGet, "/users/"+id, nil, "")
		s.Equal(http.StatusNotFound, r.Status)
		s.Equal(service.ErrNotFound.Error(), r.Body["message"])
	}
}

func (s *WebSuite) TestLogin() {
	s.createUser("Alice", "alice@example.com", "secret")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{name: "ok", body: map[string]string{"email": "alice@example.com", "password": "secret"}, wantStatus: http.StatusOK},
		{name: "wrong password", body: map[string]string{"email": "alice@example.com", "password": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown email", body: map[string]string{"email": "bob@example.com", "password": "secret"}, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: map[string]string{"email": "alice@example.com"}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.do(http.MethodPost, "/auth/login", tt.body, "")
			s.Equal(tt.wantStatus, r.Status, r.Raw)
			if tt.wantStatus == http.StatusOK {
				s.NotEmpty(r.Body["token"])
			}
		})
	}
}

func (s *WebSuite) TestUpdateUser() {
	id := s.createUser("Alice", "alice@example.com", "secret")
	s.createUser("Bob", "bob@example.com", "secret")
	auth := s.login("alice@example.com", "secret")

	tests := []struct {
		name       string
		id         string
		header     string
		body       map[string]string
		wantStatus int
	}{
		{name: "no token", id: id, body: map[string]string{"name": "x"}, wantStatus: http.StatusUnauthorized},
		{name: "not bearer", id: id, header: "Token abc", body: map[string]string{"name": "x"}, wantStatus: http.StatusUnauthorized},
		{name: "bad token", id: id, header: "Bearer abc", body: map[string]string{"name": "x"}, wantStatus: http.StatusForbidden},
		{name: "missing user", id: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", header: auth, body: map[string]string{"name": "x"}, wantStatus: http.StatusNotFound},
		{name: "malformed email", id: id, header: auth, body: map[string]string{"email": "nope"}, wantStatus: http.StatusBadRequest},
		{name: "blank email", id: id, header: auth, body: map[string]string{"email": "   "}, wantStatus: http.StatusBadRequest},
		{name: "email taken", id: id, header: auth, body: map[string]string{"email": "bob@example.com"}, wantStatus: http.StatusConflict},
		{name: "rename", id: id, header: auth, body: map[string]string{"name": "Alicia"}, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.do(http.MethodPut, "/users/"+tt.id, tt.body, tt.header)
			s.Equal(tt.wantStatus, r.Status, r.Raw)
		})
	}

	got := s.do(http.MethodGet, "/users/"+id, nil, "")
	s.Equal("Alicia", got.Body["name"])
	s.Equal("alice@example.com", got.Body["email"])

	// password untouched by the rename
	s.login("alice@example.com", "secret")
}

func (s *WebSuite) TestUpdateUserExpiredToken() {
	id := s.createUser("Alice", "alice@example.com", "secret")
	auth := s.login("alice@example.com", "secret")

	s.clock.Advance(61 * time.Minute)
	r := s.do(http.MethodPut, "/users/"+id, map[string]string{"name": "x"}, auth)
	s.Equal(http.StatusForbidden, r.Status)
	s.Equal(service.ErrForbidden.Error(), r.Body["message"])
}

func (s *WebSuite) TestDeleteUser() {
	id := s.createUser("Alice", "alice@example.com", "secret")
	auth := s.login("alice@example.com", "secret")

	r := s.do(http.MethodDelete, "/users/"+id, nil, "")
	s.Equal(http.StatusUnauthorized, r.Status)

	r = s.do(http.MethodDelete, "/users/"+id, nil, auth)
	s.Require().Equal(http.StatusOK, r.Status)
	s.Equal("User deleted successfully.", r.Body["message"])

	r = s.do(http.MethodGet, "/users/"+id, nil, "")
	s.Equal(http.StatusNotFound, r.Status)

	r = s.do(http.MethodDelete, "/users/"+id, nil, auth)
	s.Equal(http.StatusNotFound, r.Status)
}

func (s *WebSuite) TestLoginRateLimit() {
	s.server = s.newServer(config.Server{LoginRateLimit: 2})
	body := map[string]string{"email": "alice@example.com", "password": "nope"}

	for i := 0; i < 2; i++ {
		r := s.do(http.MethodPost, "/auth/login", body, "")
		s.Equal(http.StatusUnauthorized, r.Status)
	}
	r := s.do(http.MethodPost, "/auth/login", body, "")
	s.Equal(http.StatusTooManyRequests, r.Status)
	s.True(strings.HasPrefix(r.Body["message"].(string), "too many login attempts"))
}

func (s *WebSuite) TestCors() {
	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := s.server.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
}
