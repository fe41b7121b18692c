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

type userModule struct {
	opts ez.Options
	svc  *service.UserService
	jwt  *auth.JWTer
}

type userCreateIn struct {
	Name     string `json:"name"     binding:"required,max=50"`
	Email    string `json:"email"    binding:"required,email,max=50"`
	Password string `json:"password" binding:"required,min=6,max=20"`
	Role     string `json:"role"     binding:"required"`
}

// userUpdateIn 空字符串视为未提供
type userUpdateIn struct {
	Name     string `json:"name"     binding:"omitempty,max=50"`
	Email    string `json:"email"    binding:"omitempty,email,max=50"`
	Password string `json:"password" binding:"omitempty,min=6,max=20"`
	Role     string `json:"role"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (m *userModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/users", mdw.AuthJWT(m.jwt, domain.RoleAdmin))
	e := ez.New(g, m.opts)

	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return m.svc.List(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			id, err := ez.ParamID(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Get(c.Request.Context(), id)
		},
	})

	ez.RegisterAction(e, ez.Action[userCreateIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *userCreateIn) (*domain.User, error) {
			return m.svc.Create(c.Request.Context(), domain.NewUser{
				Name: in.Name, Email: in.Email, Password: in.Password, Role: in.Role,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[userUpdateIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *userUpdateIn) (*domain.User, error) {
			id, err := ez.ParamID(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Update(c.Request.Context(), id, domain.UserPatch{
				Name:     optional(in.Name),
				Email:    optional(in.Email),
				Password: optional(in.Password),
				Role:     optional(in.Role),
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := ez.ParamID(c)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, m.svc.Delete(c.Request.Context(), id)
		},
	})
}
