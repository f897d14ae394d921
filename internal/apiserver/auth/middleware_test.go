package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-api/internal/shared/model"
)

// echoHandler 将 context 中的认证用户 ID 写回响应
func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(user.ID + ":" + string(user.Role)))
	})
}

func TestMiddlewarePublicRoutes(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	public := []struct {
		method, path string
	}{
		{"POST", "/api/v1/user/register"},
		{"POST", "/api/v1/user/login"},
		{"GET", "/api/v1/user/logout"},
		{"GET", "/api/v1/product"},
		{"GET", "/api/v1/product/single"},
		{"GET", "/api/v1/category"},
		{"GET", "/health"},
		{"GET", "/metrics"},
	}

	for _, tc := range public {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s %s: expected 200 without token, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestMiddlewareMissingToken(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func TestMiddlewareInvalidToken(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", w.Code)
	}
}

func TestMiddlewareCookieToken(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	token, err := GenerateToken(testCfg, "usr-42", "bob@example.com", model.UserRoleUser)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "usr-42:user" {
		t.Errorf("expected user injected into context, got %q", got)
	}
}

func TestMiddlewareBearerToken(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	token, err := GenerateToken(testCfg, "usr-7", "eve@example.com", model.UserRoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/order", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", w.Code)
	}
	if got := w.Body.String(); got != "usr-7:admin" {
		t.Errorf("expected admin injected into context, got %q", got)
	}
}

// Cookie 优先于 Authorization 头
func TestMiddlewareCookieTakesPrecedence(t *testing.T) {
	handler := Middleware(testCfg)(echoHandler())

	cookieToken, _ := GenerateToken(testCfg, "usr-cookie", "a@example.com", model.UserRoleUser)
	headerToken, _ := GenerateToken(testCfg, "usr-header", "b@example.com", model.UserRoleUser)

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Body.String(); got != "usr-cookie:user" {
		t.Errorf("expected cookie token to win, got %q", got)
	}
}
