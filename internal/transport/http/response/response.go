package response

import (
	"github.com/gin-gonic/gin"

	"go-sales-tracker/internal/apperr"
)

// ErrorBody 统一错误体：{message, details}
type ErrorBody struct {
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details"`
}

func Error(msg string, details []apperr.FieldError) ErrorBody {
	return ErrorBody{Message: msg, Details: details}
}

// Abort msg 为空时使用默认文案
func Abort(c *gin.Context, status int, msg string) {
	if msg == "" {
		msg = MessageOf(status)
	}
	c.AbortWithStatusJSON(status, Error(msg, nil))
}
