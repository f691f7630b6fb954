package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// formOverhead leaves room for the text fields and multipart boundaries.
const formOverhead = 1 << 20

// LimitBodySize caps request bodies at maxFileSize plus form overhead.
func LimitBodySize(maxFileSize int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if maxFileSize > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxFileSize+formOverhead)
		}
		ctx.Next()
	}
}
