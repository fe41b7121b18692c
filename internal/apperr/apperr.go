// Package apperr 业务错误：携带 HTTP 状态码和可选的字段级明细，由 HTTP 边界统一渲染。
package apperr

import (
	"errors"
	"net/http"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type Error struct {
	Status  int
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &Error{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) error { return &Error{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Status: http.StatusForbidden, Message: msg} }
func NotFound(msg string) error     { return &Error{Status: http.StatusNotFound, Message: msg} }
func Conflict(msg string) error     { return &Error{Status: http.StatusConflict, Message: msg} }

func Validation(msg string, details []FieldError) error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: msg, Details: details}
}

func Internal(msg string, err error) error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// StatusOf 非 *Error 一律视为 500
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// As 便捷断言
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
