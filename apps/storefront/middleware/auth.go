package middleware

import (
	"net/http"
	"strings"

	"go-jewelry/pkg/jwt"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context 中保存的登录信息
const (
	CtxUserID  = "userId"
	CtxEmail   = "email"
	CtxIsAdmin = "isAdmin"
)

// Auth 必须登录
func Auth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Header 里的 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		// 2. 格式为 "Bearer <token>"
		token, ok := bearerToken(authHeader)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		// 3. 解析 Token
		claims, err := tokens.ParseToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		// 4. 写入 Context，供后续 Handler 使用
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth 有合法 token 时写入用户信息，否则按游客处理
func OptionalAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := tokens.ParseToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// AdminOnly 需放在 Auth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			response.Error(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID 当前登录用户，未登录返回 false
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxIsAdmin, claims.IsAdmin)
}
