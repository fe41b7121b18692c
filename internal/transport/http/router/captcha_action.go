package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sales-tracker/internal/core/captcha"
	"go-sales-tracker/internal/transport/http/ez"
)

type captchaModule struct {
	opts  ez.Options
	svc   *captcha.Service
	limit gin.HandlerFunc
}

func (m *captchaModule) Priority() int { return 10 }

type captchaOut struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	ExpiresAt int64  `json:"expiresAt"` // unix ms
}

func (m *captchaModule) MountAPI(api *gin.RouterGroup) {
	ez.RegisterAction(ez.New(api.Group("", m.limit), m.opts), ez.Action[struct{}, captchaOut]{
		Method: http.MethodGet,
		Path:   "/captcha",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (captchaOut, error) {
			ch, err := m.svc.Generate(c.Request.Context())
			if err != nil {
				return captchaOut{}, err
			}
			c.Header("Cache-Control", "no-store")
			return captchaOut{ID: ch.ID, Data: ch.Data, ExpiresAt: ch.ExpiresAt.UnixMilli()}, nil
		},
	})
}
