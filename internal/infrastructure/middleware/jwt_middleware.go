package middleware

import (
	"net/http"
	"strings"

	"social_connect_server/internal/dao/mysql/repository"
	"social_connect_server/pkg/errorx"
	"social_connect_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortUnauthorized 以 401 终止请求
func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    errorx.CodeUnauthorized,
		"message": message,
	})
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 ID 存入上下文
// Token 优先取 Authorization: Bearer 头；WebSocket 握手无法携带 Header，
// 允许回落到 ?token= 查询参数
// 额外校验用户仍然存在：Token 有效期内被删除的账号一律拒绝
func JWTAuth(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 或查询参数获取 Token
		var tokenString string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "Invalid authorization header, expected Bearer token")
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			abortUnauthorized(c, errorx.ErrUnauthorized.Msg)
			return
		}

		// 2. 验证 Token
		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// 3. 验证是否为 Access Token
		if claims.Subject != "access_token" {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// 4. 确认用户仍然存在
		exists, err := userRepo.Exists(claims.UserID)
		if err != nil {
			zap.L().Error("auth user lookup failed",
				zap.Int64("user_id", claims.UserID),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"code":    errorx.CodeServerBusy,
				"message": errorx.ErrServerBusy.Msg,
			})
			return
		}
		if !exists {
			abortUnauthorized(c, "User no longer exists")
			return
		}

		// 5. 将用户 ID 存入上下文，供后续 Handler 使用
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
