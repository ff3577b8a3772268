package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionCookie 匿名会话cookie名
const sessionCookie = "sw_session"

// sessionKey 会话ID在gin上下文里的键
const sessionKey = "sessionID"

// SessionMiddleware 匿名会话中间件。没有会话cookie时发一个新的，
// 会话ID是自选股在登录前的归属键
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || sid == "" {
			sid = uuid.New().String()
			c.SetCookie(sessionCookie, sid, 30*24*3600, "/", "", false, true)
		}
		c.Set(sessionKey, sid)
		c.Next()
	}
}
