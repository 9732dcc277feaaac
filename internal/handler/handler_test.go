package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/response"
	"github.com/stemsi/quizroom-backend/internal/service"
	"github.com/stemsi/quizroom-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestFailMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"not found", service.ErrQuizNotFound, http.StatusNotFound, response.ErrQuizNotFound},
		{"wrapped", fmt.Errorf("submit: %w", service.ErrQuizAlreadySubmitted), http.StatusBadRequest, response.ErrQuizAlreadySubmitted},
		{"conflict", service.ErrQuestionInUse, http.StatusConflict, response.ErrQuestionInUse},
		{"upstream", fmt.Errorf("%w: timeout", service.ErrAnalysisUnavailable), http.StatusBadGateway, response.ErrAnalysisUnavailable},
		{"fields", model.FieldErrors{"title": "required"}, http.StatusBadRequest, response.ErrValidation},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			fail(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			env := decode(t, w)
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.code)
			}
			if bytes.Contains(w.Body.Bytes(), []byte("connection reset")) {
				t.Error("internal error text leaked to the client")
			}
			if tt.code == response.ErrInternal && len(c.Errors) != 1 {
				t.Error("internal error not attached for logging")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	for _, tt := range []struct {
		name   string
		redis  Pinger
		status int
	}{
		{"all up", up, http.StatusOK},
		{"redis down", down, http.StatusServiceUnavailable},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewSystemHandler(up, tt.redis, zerolog.Nop()).Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// ─── Auth flow over HTTP ────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

type memSessions struct {
	mu      sync.Mutex
	live    map[string]bool
	revoked map[uuid.UUID]time.Time
}

func (m *memSessions) Save(_ context.Context, _ uuid.UUID, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[jti] = true
	return nil
}

func (m *memSessions) Exists(_ context.Context, _ uuid.UUID, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[jti], nil
}

func (m *memSessions) Revoke(_ context.Context, _ uuid.UUID, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, jti)
	return nil
}

func (m *memSessions) RevokeAll(context.Context, uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = map[string]bool{}
	return nil
}

func (m *memSessions) MarkRevoked(_ context.Context, userID uuid.UUID, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[uuid.UUID]time.Time{}
	}
	m.revoked[userID] = at
	return nil
}

func (m *memSessions) RevokedAt(_ context.Context, userID uuid.UUID) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.revoked[userID]
	return at, ok, nil
}

func newAuthRouter() *gin.Engine {
	cfg := &config.Config{
		JWTSecret:        "access",
		JWTRefreshSecret: "refresh",
		JWTExpiry:        time.Minute,
		JWTRefreshExpiry: time.Hour,
		BcryptCost:       4,
	}
	authService := service.NewAuthService(cfg, &memSessions{live: map[string]bool{}})
	userService := service.NewUserService(&memUsers{users: map[uuid.UUID]model.User{}}, authService, false, zerolog.Nop())
	h := NewAuthHandler(authService, userService)

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", middleware.RequireAuth(authService), h.Logout)
	auth.GET("/me", middleware.RequireAuth(authService), h.Me)
	return r
}

func call(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r := newAuthRouter()
	register := gin.H{
		"username": "siti_teacher",
		"email":    "siti@example.com",
		"password": "secret1",
		"role":     "teacher",
		"profile":  gin.H{"first_name": "Siti", "last_name": "Aminah"},
	}

	w := call(r, http.MethodPost, "/api/v1/auth/register", "", register)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodPost, "/api/v1/auth/register", "", register); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d", w.Code)
	}

	bad := call(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "x"})
	if env := decode(t, bad); bad.Code != http.StatusBadRequest || env.Error.Code != response.ErrValidation || len(env.Error.Fields) == 0 {
		t.Fatalf("invalid register: status = %d error %+v", bad.Code, env.Error)
	}

	if w := call(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "siti_teacher", "password": "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", w.Code)
	}

	w = call(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "siti_teacher", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d", w.Code)
	}
	var auth model.AuthResponse
	if err := json.Unmarshal(decode(t, w).Data, &auth); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	if auth.User.Role != model.RoleTeacher || auth.Tokens.AccessToken == "" {
		t.Fatalf("unexpected auth response %+v", auth)
	}

	me := call(r, http.MethodGet, "/api/v1/auth/me", auth.Tokens.AccessToken, nil)
	if me.Code != http.StatusOK || !bytes.Contains(me.Body.Bytes(), []byte("siti_teacher")) {
		t.Fatalf("me: status = %d body %s", me.Code, me.Body.String())
	}
	if bytes.Contains(me.Body.Bytes(), []byte("password")) {
		t.Error("password hash exposed")
	}

	refreshed := call(r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": auth.Tokens.RefreshToken})
	if refreshed.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d", refreshed.Code)
	}
	reused := call(r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": auth.Tokens.RefreshToken})
	if env := decode(t, reused); reused.Code != http.StatusUnauthorized || env.Error.Code != response.ErrSessionInvalidated {
		t.Fatalf("reused refresh token: status = %d error %+v", reused.Code, env.Error)
	}

	if w := call(r, http.MethodPost, "/api/v1/auth/logout", auth.Tokens.AccessToken, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}
}
