package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-sales-tracker/internal/transport/http/response"
)

// MaxBodyBytes 声明长度超限直接 413；分块上传由 MaxBytesReader 在绑定时拦截
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, "")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
