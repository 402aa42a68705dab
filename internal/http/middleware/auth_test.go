package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-time-vault/internal/identity"
)

func TestAuth_HeaderProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Auth(identity.Header{}))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "email": UserEmail(c)})
	})

	// missing identity -> 401 envelope
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("unexpected body %v", body)
	}

	// identity present
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(identity.HeaderUserID, "u1")
	req.Header.Set(identity.HeaderUserEmail, "u1@example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body = map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["id"] != "u1" || body["email"] != "u1@example.com" {
		t.Fatalf("identity not stored in context: %v", body)
	}
}

func TestAuth_JWTProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j, err := identity.NewJWT([]byte("secret"), "")
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	tok, _ := j.Issue(identity.Identity{UserID: "u9", Email: "u9@example.com"}, time.Hour)

	r := gin.New()
	r.Use(Auth(j))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "u9" {
		t.Fatalf("expected 200 u9, got %d %q", w.Code, w.Body.String())
	}

	// the header provider's headers are ignored in jwt mode
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(identity.HeaderUserID, "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserID_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if UserID(c) != "" || UserEmail(c) != "" {
		t.Fatalf("expected empty identity")
	}
}
