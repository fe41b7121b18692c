package response

import "net/http"

// 中间件/兜底场景的默认文案
var statusMessages = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "route not found",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "too many requests",
	http.StatusInternalServerError:   "internal server error",
	http.StatusServiceUnavailable:    "server busy",
	http.StatusGatewayTimeout:        "request timeout",
}

func MessageOf(status int) string {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return http.StatusText(status)
}
