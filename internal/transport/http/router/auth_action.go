package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/service"
	"go-sales-tracker/internal/transport/http/ez"
	mdw "go-sales-tracker/internal/transport/http/middleware"
)

type authModule struct {
	opts  ez.Options
	svc   *service.AuthService
	jwt   *auth.JWTer
	limit gin.HandlerFunc
}

func (m *authModule) Priority() int { return 10 }

func (m *authModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/auth")

	type loginIn struct {
		Email        string `json:"email"        binding:"required,email,max=50"`
		Password     string `json:"password"     binding:"required,min=6,max=20"`
		CaptchaID    string `json:"captchaId"    binding:"required,uuid"`
		CaptchaValue string `json:"captchaValue" binding:"required,min=4,max=6"`
	}
	ez.RegisterAction(ez.New(g.Group("", m.limit), m.opts), ez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return m.svc.Login(c.Request.Context(), service.LoginInput{
				Email:        in.Email,
				Password:     in.Password,
				CaptchaID:    in.CaptchaID,
				CaptchaValue: in.CaptchaValue,
			})
		},
	})

	ez.RegisterAction(ez.New(g.Group("", mdw.AuthJWT(m.jwt)), m.opts), ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			actor, err := ez.ActorOf(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Me(c.Request.Context(), actor)
		},
	})
}
