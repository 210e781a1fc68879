package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// 上下文中保存当前用户的键
const currentUserKey = "currentUser"

// extractToken 从授权头中提取token
func extractToken(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authentication 通用的认证中间件，校验 Bearer 令牌并写入当前用户
func Authentication(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少认证信息")
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			response.Unauthorized(c, "认证格式应为 Bearer {token}")
			return
		}

		claims, err := jwtService.ParseToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "")
			return
		}

		c.Set(currentUserKey, claims.CurrentUser())
		c.Next()
	}
}

// RequireRoles 只允许指定角色访问，需放在 Authentication 之后
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c, "")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		response.Fail(c, code.ErrForbidden)
	}
}

// RequireSuperAdmin 仅超级管理员
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin)
}

// RequireManager 超级管理员或小区管理员
func RequireManager() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin, models.RoleCommunityAdmin)
}

// CurrentUser 取出认证中间件写入的当前用户
func CurrentUser(c *gin.Context) (services.CurrentUser, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return services.CurrentUser{}, false
	}
	user, ok := v.(services.CurrentUser)
	return user, ok
}
