package rest

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerAdminID = "X-Admin-ID"
	ctxAdminID    = "admin_id"
)

// requestLogger logs every request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

// adminRequired accepts requests carrying the API bearer token and the
// Telegram ID of a configured administrator in X-Admin-ID.
func adminRequired(token string, isAdmin func(int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		bearer, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		adminID, err := strconv.ParseInt(c.GetHeader(headerAdminID), 10, 64)
		if err != nil || !isAdmin(adminID) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "administrator access required"})
			return
		}

		c.Set(ctxAdminID, adminID)
		c.Next()
	}
}
