package middleware

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer token，jwt.enabled 为 false 时直接放行
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// SelfOnly 只允许访问 token 对应用户的 :userId 路由，未开启认证时不做限制
func SelfOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			c.Next()
			return
		}
		if claims.Subject != c.Param(param) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
