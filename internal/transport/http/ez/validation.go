package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators 给 gin 的 validator 注册业务枚举 tag，并用 json/form 名作为字段名
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("product", func(fl validator.FieldLevel) bool {
			return domain.Product(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("salestatus", func(fl validator.FieldLevel) bool {
			return domain.SaleStatus(fl.Field().String()).Valid()
		})
	})
}

// bindError 绑定/校验失败统一 422；body 超限 413
func bindError(err error) error {
	if isBodyTooLarge(err) {
		return &apperr.Error{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"}
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make([]apperr.FieldError, 0, len(ve))
		for _, fe := range ve {
			details = append(details, apperr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return apperr.Validation("validation failed", details)
	}
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validation("validation failed", []apperr.FieldError{{Message: "request body is required"}})
	case errors.As(err, &te):
		return apperr.Validation("validation failed", []apperr.FieldError{{Field: te.Field, Message: fmt.Sprintf("%s has an invalid type", te.Field)}})
	case errors.As(err, &se):
		return apperr.Validation("validation failed", []apperr.FieldError{{Message: "malformed JSON"}})
	}
	return apperr.Validation("validation failed", []apperr.FieldError{{Message: err.Error()}})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "product":
		return field + " must be one of: Credito de Consumo, Libranza Libre Inversión, Tarjeta de Credito"
	case "salestatus":
		return field + " must be one of: Abierto, En Proceso, Finalizado"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
