package auth

import (
	"log"
	"net/http"
	"strings"

	"shop-api/internal/shared/model"
)

// 免认证路由精确匹配（METHOD + path）
var publicExact = map[string]bool{
	"POST /api/v1/user/register": true,
	"POST /api/v1/user/login":    true,
	"GET /api/v1/user/logout":    true,
	"GET /api/v1/product":        true, // 商品/分类搜索公开
	"GET /api/v1/product/single": true,
	"GET /api/v1/category":       true,
}

// 免认证路由前缀匹配
var publicPrefixes = []string{
	"/health",
	"/metrics",
}

func isPublicRoute(method, path string) bool {
	if publicExact[method+" "+path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建会话认证中间件
//
// 令牌优先从会话 Cookie 读取，其次接受 Authorization: Bearer。
// 验证通过后将 AuthUser 注入 context；角色校验由各操作自行执行。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			user := &AuthUser{
				ID:    claims.Subject,
				Email: claims.Email,
				Role:  model.UserRole(claims.Role),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// extractToken 从 Cookie 或 Authorization 头提取令牌
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
