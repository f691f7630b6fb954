package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ValidateContentType ensures form posts are multipart or url encoded
func ValidateContentType() gin.HandlerFunc {
	allowedTypes := []string{"multipart/form-data", "application/x-www-form-urlencoded"}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}

		contentType := strings.ToLower(ctx.GetHeader("Content-Type"))
		for _, allowed := range allowedTypes {
			if strings.HasPrefix(contentType, allowed) {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"success": false,
			"error":   "Expected a form submission",
		})
	}
}
