package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/pulltab-game/internal/service"
)

// 上下文键，处理器通过GetUserID等辅助函数读取
const (
	ctxUserID    = "userID"
	ctxUsername  = "username"
	ctxEmail     = "email"
	ctxRole      = "role"
	ctxSessionID = "sessionID"
	ctxToken     = "token"
)

// AuthMiddleware 基于JWT的请求认证
type AuthMiddleware struct {
	authService service.AuthService
}

func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth 无有效令牌直接401中断
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "NO_TOKEN",
				"message": "缺少认证令牌",
			})
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "INVALID_TOKEN",
				"message": "无效的令牌",
			})
			return
		}

		setIdentity(c, claims, token)
		c.Next()
	}
}

// OptionalAuth 有令牌则注入身份，没有也放行。
// websocket观战入口用这个，游客可以看开盒进度。
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := m.authService.ValidateToken(c.Request.Context(), token); err == nil {
				setIdentity(c, claims, token)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *service.TokenClaims, token string) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxSessionID, claims.SessionID)
	c.Set(ctxToken, token)
}

// extractToken 优先Authorization头；浏览器websocket无法带自定义头，
// 所以也接受query参数token
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	return c.Query("token")
}

// GetUserID 从上下文读取认证用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUsername 从上下文读取用户名
func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxUsername)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
