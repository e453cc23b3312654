package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/scribemart/internal/pkg/auth"
	testhelpers "github.com/polkiloo/scribemart/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func bearer(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer token")
	return req
}

func TestAuthRequired(t *testing.T) {
	router := gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{}))
	router.GET("/", func(c *gin.Context) {})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "authentication required") {
		t.Fatalf("expected error envelope, got %s", resp.Body.String())
	}

	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Err: pkgAuth.ErrInvalidToken}))
	router.GET("/", func(c *gin.Context) {})
	resp = serve(router, bearer(httptest.NewRequest(http.MethodGet, "/", nil)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}

	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Err: context.DeadlineExceeded}))
	router.GET("/", func(c *gin.Context) {})
	resp = serve(router, bearer(httptest.NewRequest(http.MethodGet, "/", nil)))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var stored model.Actor
	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Actor: model.Actor{UserID: 42, Role: model.RoleWriter}}))
	router.GET("/", func(c *gin.Context) {
		if v, ok := c.Get(ActorContextKey); ok {
			stored = v.(model.Actor)
		}
		c.Status(http.StatusOK)
	})
	resp = serve(router, bearer(httptest.NewRequest(http.MethodGet, "/", nil)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if stored.UserID != 42 || stored.Role != model.RoleWriter {
		t.Fatalf("unexpected actor %+v", stored)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.Actor
		status int
	}{
		{name: "admin passes", actor: model.Actor{UserID: 1, Role: model.RoleAdmin}, status: http.StatusOK},
		{name: "writer rejected", actor: model.Actor{UserID: 2, Role: model.RoleWriter}, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthRequired(testhelpers.TokenParserStub{Actor: tt.actor}), RequireRole(model.RoleAdmin))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			resp := serve(router, bearer(httptest.NewRequest(http.MethodGet, "/", nil)))
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
		})
	}

	router := gin.New()
	router.Use(RequireRole(model.RoleAdmin))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without actor, got %d", resp.Code)
	}
}

func TestSetAuthCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	SetAuthCookie(c, "token")
	if got := recorder.Header().Get("Authorization"); got != "Bearer token" {
		t.Fatalf("expected auth header, got %q", got)
	}
	result := recorder.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	cookies := result.Cookies()
	if len(cookies) == 0 || cookies[0].Name != authCookieName || cookies[0].Value != "token" {
		t.Fatalf("expected cookie with token, got %+v", cookies)
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
	c.Request.Header.Set("Authorization", "Bearer abc")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}
	c.Request.Header.Del("Authorization")
	c.Request.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie"})
	if token := extractToken(c); token != "cookie" {
		t.Fatalf("expected token from cookie, got %q", token)
	}
}

func TestDecompressRequest(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("payload"))
	_ = gz.Close()

	router := gin.New()
	router.Use(DecompressRequest())
	var body string
	router.POST("/", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		body = string(data)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Encoding", "gzip")
	serve(router, req)
	if body != "payload" {
		t.Fatalf("expected decompressed payload, got %q", body)
	}

	body = ""
	serve(router, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("plain"))))
	if body != "plain" {
		t.Fatalf("expected plain body, got %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not gzip")))
	req.Header.Set("Content-Encoding", "gzip")
	if resp := serve(router, req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed gzip, got %d", resp.Code)
	}
}

func TestDecompressRequestLimitsBody(t *testing.T) {
	router := gin.New()
	router.Use(DecompressRequest())
	var readErr error
	router.POST("/", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	serve(router, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, maxBodyBytes+1))))
	if readErr == nil {
		t.Fatal("expected oversized body to be rejected")
	}
}

func TestRequestLogger(t *testing.T) {
	levels := map[string]int{}
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			levels[a.Value.String()]++
		}
		return a
	}})
	logger := slog.New(handler)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/bad", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if levels["INFO"] != 1 || levels["WARN"] != 1 || levels["ERROR"] != 1 {
		t.Fatalf("unexpected levels %v", levels)
	}
}
