package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/carrierpay/internal/cache"
	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response, got %d %s", w.Code, w.Body.String())
	}
}

func TestWaitSeconds(t *testing.T) {
	if got := waitSeconds(42, 60); got != 42 {
		t.Fatalf("ttl should win, got %d", got)
	}
	if got := waitSeconds(-2, 60); got != 60 {
		t.Fatalf("window fallback want 60 got %d", got)
	}
	if got := waitSeconds(0, 0); got != 1 {
		t.Fatalf("minimum wait want 1 got %d", got)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("want (%d,%v) got (%d,%v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestSetupRouterAdminLoginHasOwnRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("parse miniredis port failed: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
		_ = cache.InitRedis(nil)
	})

	dsn := fmt.Sprintf("file:router_rate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	previous := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = previous })

	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port},
		JWT:   config.JWTConfig{SecretKey: "router-jwt", ExpireHours: 1},
		RateLimit: config.RateLimitConfig{
			PaymentInitiate: config.RateLimitRule{WindowSeconds: 60, MaxRequests: 100, BlockSeconds: 60},
			AdminLogin:      config.RateLimitRule{WindowSeconds: 60, MaxRequests: 1, BlockSeconds: 60},
		},
	}
	r := SetupRouter(cfg, provider.NewContainer(cfg))

	post := func(path, body string) response.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var resp response.Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s failed: %v (%s)", path, err, w.Body.String())
		}
		return resp
	}

	login := `{"username":"ops","password":"wrong"}`
	if resp := post("/api/v1/admin/login", login); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("first login want 401 got %d", resp.StatusCode)
	}
	if resp := post("/api/v1/admin/login", login); resp.StatusCode != response.CodeTooManyRequests {
		t.Fatalf("second login want 429 got %d", resp.StatusCode)
	}
	for i := 0; i < 3; i++ {
		if resp := post("/api/v1/payments/dimoco", `{}`); resp.StatusCode == response.CodeTooManyRequests {
			t.Fatalf("payment initiate must not share the login budget")
		}
	}
}

func TestBuildRateLimitRule(t *testing.T) {
	rule := buildRateLimitRule("cp", "admin_login", config.RateLimitRule{WindowSeconds: 300, MaxRequests: 5, BlockSeconds: 900})
	if rule.Prefix != "cp:rate:admin_login" || rule.WindowSeconds != 300 || rule.MaxRequests != 5 || rule.BlockSeconds != 900 {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}
