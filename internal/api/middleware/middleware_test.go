package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/config"
	"github.com/SyberOman/testing-hospital/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type stubLimiter struct {
	counts map[string]int
	err    error
}

func (s *stubLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.counts[key]++
	return s.counts[key] <= limit, nil
}

func newManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-0123456789",
		AccessTokenTTL: time.Hour,
	})
}

func protected(mgr *jwt.Manager, bl TokenBlacklist) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(mgr, bl))
	r.GET("/p", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role")+"|"+c.GetString("department_id"))
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	mgr := newManager()
	token, err := mgr.GenerateAccessToken("u1", "staff", "d2")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	r := protected(mgr, nil)

	if w := get(r, "/p", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("缺少认证头应返回 401，实际 %d", w.Code)
	}
	if w := get(r, "/p", "Token "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("非 Bearer 应返回 401，实际 %d", w.Code)
	}
	if w := get(r, "/p", "Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("无效 Token 应返回 401，实际 %d", w.Code)
	}

	w := get(r, "/p", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("有效 Token 应放行，实际 %d", w.Code)
	}
	if w.Body.String() != "staff|d2" {
		t.Errorf("上下文注入错误: %s", w.Body.String())
	}
}

func TestJWTAuth_Blacklist(t *testing.T) {
	mgr := newManager()
	token, _ := mgr.GenerateAccessToken("u1", "admin", "")
	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	bl := &stubBlacklist{revoked: map[string]bool{claims.ID: true}}
	if w := get(protected(mgr, bl), "/p", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("已注销 Token 应返回 401，实际 %d", w.Code)
	}

	// 黑名单存储出错时降级放行
	bl = &stubBlacklist{revoked: map[string]bool{}, err: errors.New("redis down")}
	if w := get(protected(mgr, bl), "/p", "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("黑名单出错应放行，实际 %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	build := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
			c.Next()
		})
		r.GET("/p", RoleAuth("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	if w := get(build("admin"), "/p", ""); w.Code != http.StatusOK {
		t.Errorf("admin 应放行，实际 %d", w.Code)
	}
	if w := get(build("staff"), "/p", ""); w.Code != http.StatusForbidden {
		t.Errorf("staff 应返回 403，实际 %d", w.Code)
	}
	if w := get(build(""), "/p", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("未认证应返回 401，实际 %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := &stubLimiter{counts: map[string]int{}}
	r := gin.New()
	r.GET("/login", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := get(r, "/login", ""); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行，实际 %d", i+1, w.Code)
		}
	}
	w := get(r, "/login", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("超限应返回 429，实际 %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After 应为 60，实际 %q", w.Header().Get("Retry-After"))
	}

	limiter.err = errors.New("redis down")
	if w := get(r, "/login", ""); w.Code != http.StatusOK {
		t.Errorf("限流存储出错应放行，实际 %d", w.Code)
	}

	open := gin.New()
	open.GET("/x", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		if w := get(open, "/x", ""); w.Code != http.StatusOK {
			t.Errorf("未配置限流应放行，实际 %d", w.Code)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader(strings.Repeat("x", 64)))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限请求体应返回 413，实际 %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("{}"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("小请求体应放行，实际 %d", w.Code)
	}
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用请求头中的 Request-ID，header=%q body=%q", w.Header().Get("X-Request-ID"), w.Body.String())
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("缺少 X-Frame-Options")
	}

	w = get(r, "/p", "")
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("应生成 UUID，实际 %q", w.Header().Get("X-Request-ID"))
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/p", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检应返回 204，实际 %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("白名单来源应被放行")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("非白名单来源不应设置 CORS 头")
	}
}

func TestRequestID_RejectsUnsafeValues(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, bad := range []string{"abc\r\ninjected", "has space", strings.Repeat("a", 65)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("X-Request-ID", bad)
		r.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); got == bad || len(got) != 36 {
			t.Errorf("非法 Request-ID %q 应被替换为 UUID，实际 %q", bad, got)
		}
	}
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Origin", "http://ward-pc.local")
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("通配来源应返回 *，实际 %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("通配来源不应允许携带凭证")
	}
}
