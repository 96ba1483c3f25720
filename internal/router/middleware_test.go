package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/repository"
	"github.com/carrierpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func TestTracingMiddlewareStartsServerSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var sawSpan bool
	r := gin.New()
	r.Use(TracingMiddleware("carrierpay-test"))
	r.POST("/hook/:id", func(c *gin.Context) {
		sawSpan = trace.SpanContextFromContext(c.Request.Context()).IsValid()
		c.Status(http.StatusInternalServerError)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/hook/7", nil))

	if !sawSpan {
		t.Fatalf("handler context should carry the request span")
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "POST /hook/:id" {
		t.Fatalf("unexpected spans: %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Fatalf("span kind want server got %v", spans[0].SpanKind())
	}
}

func setupAuth(t *testing.T) (*service.AuthService, *models.Admin, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:router_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	hash, err := service.HashPassword("pw")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	repo := repository.NewAdminRepository(db)
	admin := &models.Admin{Username: "ops", PasswordHash: hash, TokenVersion: 1}
	if err := repo.Create(admin); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return service.NewAuthService(config.JWTConfig{SecretKey: "router-jwt", ExpireHours: 1}, repo), admin, db
}

func authStatus(t *testing.T, r *gin.Engine, header string) int {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, admin, db := setupAuth(t)

	r := gin.New()
	r.Use(JWTAuthMiddleware(auth))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "username": c.GetString("username")})
	})

	if code := authStatus(t, r, ""); code != 401 {
		t.Fatalf("missing header want 401 got %d", code)
	}
	if code := authStatus(t, r, "Token abc"); code != 401 {
		t.Fatalf("bad scheme want 401 got %d", code)
	}
	if code := authStatus(t, r, "Bearer not-a-jwt"); code != 401 {
		t.Fatalf("garbage token want 401 got %d", code)
	}

	token, _, err := auth.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if code := authStatus(t, r, "Bearer "+token); code != 0 {
		t.Fatalf("valid token want 0 got %d", code)
	}

	if err := db.Model(&models.Admin{}).Where("id = ?", admin.ID).Update("token_version", 2).Error; err != nil {
		t.Fatalf("bump token version failed: %v", err)
	}
	if code := authStatus(t, r, "Bearer "+token); code != 401 {
		t.Fatalf("revoked token want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	if code := authStatus(t, r, "Bearer x"); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, _, db := setupAuth(t)
	previous := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = previous })

	r := gin.New()
	r.GET("/healthz", healthz)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(context.Background())
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz want 200 got %d: %s", w.Code, w.Body.String())
	}
}
