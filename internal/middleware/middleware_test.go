package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/cache"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateAccessToken(token string) (*service.Claims, error) {
	if token == "expired" {
		return nil, service.ErrTokenExpired
	}
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, service.ErrTokenInvalid
}

var (
	teacherID = uuid.New()
	studentID = uuid.New()
	tokens    = stubValidator{
		"teacher": {UserID: teacherID, Role: model.RoleTeacher, TokenType: service.TokenTypeAccess},
		"student": {UserID: studentID, Role: model.RoleStudent, TokenType: service.TokenTypeAccess},
	}
)

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAndRole(t *testing.T) {
	r := gin.New()
	r.GET("/teacher", RequireAuth(tokens), RequireRole(model.RoleTeacher), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).UserID.String())
	})

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"invalid", "nope", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", "expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong role", "student", http.StatusForbidden, "TEACHER_ACCESS_ONLY"},
		{"ok", "teacher", http.StatusOK, teacherID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/teacher", tt.token)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if !bytes.Contains(w.Body.Bytes(), []byte(tt.body)) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRequireWSAuthAcceptsQueryToken(t *testing.T) {
	r := gin.New()
	r.GET("/ws", RequireWSAuth(tokens), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := do(r, http.MethodGet, "/ws?token=teacher", ""); w.Code != http.StatusNoContent {
		t.Errorf("query token: status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/ws", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
}

type revokedUsers map[uuid.UUID]bool

func (r revokedUsers) CheckSession(_ context.Context, claims *service.Claims) error {
	if r[claims.UserID] {
		return service.ErrSessionInvalidated
	}
	return nil
}

func TestRequireActiveSession(t *testing.T) {
	r := gin.New()
	r.POST("/student/submit", RequireAuth(tokens), RequireActiveSession(revokedUsers{studentID: true}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := do(r, http.MethodPost, "/student/submit", "student")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session: status = %d, want 401", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("SESSION_INVALIDATED")) {
		t.Errorf("body %q does not name SESSION_INVALIDATED", w.Body.String())
	}

	if w := do(r, http.MethodPost, "/student/submit", "teacher"); w.Code != http.StatusCreated {
		t.Errorf("live session: status = %d, want 201", w.Code)
	}
}

func TestCacheResponse(t *testing.T) {
	now := time.Now()
	rc := cache.New(cache.WithClock(func() time.Time { return now }))
	calls := 0

	r := gin.New()
	auth := RequireAuth(tokens)
	r.GET("/api/v1/teacher/quizzes", auth, CacheResponse(rc, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/api/v1/teacher/broken", auth, CacheResponse(rc, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{})
	})
	r.POST("/api/v1/teacher/quizzes", auth, InvalidateCache(rc, "/api/v1/teacher/quizzes"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	first := do(r, http.MethodGet, "/api/v1/teacher/quizzes", "teacher")
	if first.Header().Get(HeaderCache) != "MISS" {
		t.Fatalf("first request: X-Cache = %q", first.Header().Get(HeaderCache))
	}
	second := do(r, http.MethodGet, "/api/v1/teacher/quizzes", "teacher")
	if second.Header().Get(HeaderCache) != "HIT" || second.Body.String() != first.Body.String() {
		t.Fatalf("second request not served from cache: %q %q", second.Header().Get(HeaderCache), second.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}

	// Another caller never sees this caller's entry.
	if w := do(r, http.MethodGet, "/api/v1/teacher/quizzes", "student"); w.Header().Get(HeaderCache) != "MISS" {
		t.Error("cache leaked across callers")
	}

	do(r, http.MethodPost, "/api/v1/teacher/quizzes", "teacher")
	if w := do(r, http.MethodGet, "/api/v1/teacher/quizzes", "teacher"); w.Header().Get(HeaderCache) != "MISS" {
		t.Error("write did not invalidate the cached list")
	}

	now = now.Add(2 * time.Minute)
	if w := do(r, http.MethodGet, "/api/v1/teacher/quizzes", "teacher"); w.Header().Get(HeaderCache) != "MISS" {
		t.Error("expired entry served")
	}

	do(r, http.MethodGet, "/api/v1/teacher/broken", "teacher")
	if w := do(r, http.MethodGet, "/api/v1/teacher/broken", "teacher"); w.Header().Get(HeaderCache) != "MISS" {
		t.Error("error response was cached")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodPost, "/login", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := do(r, http.MethodPost, "/login", "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third request: status = %d, Retry-After = %q", w.Code, w.Header().Get("Retry-After"))
	}

	now = now.Add(time.Minute)
	if w := do(r, http.MethodPost, "/login", ""); w.Code != http.StatusOK {
		t.Errorf("after refill: status = %d", w.Code)
	}
}

func TestBrotli(t *testing.T) {
	big := bytes.Repeat([]byte("quiz "), 1000)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.Data(http.StatusOK, "text/plain", big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("large body not compressed")
	}
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil || !bytes.Equal(plain, big) {
		t.Fatalf("decompressed body mismatch (err %v)", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("small body: encoding %q body %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
}
