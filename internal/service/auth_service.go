package service

import (
	"context"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/core/metrics"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/pkg/utils"
)

type CaptchaValidator interface {
	Validate(ctx context.Context, id, guess string) bool
}

type LoginInput struct {
	Email        string
	Password     string
	CaptchaID    string
	CaptchaValue string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users   domain.UserRepository
	captcha CaptchaValidator
	jwt     *auth.JWTer
}

func NewAuthService(users domain.UserRepository, captcha CaptchaValidator, jwt *auth.JWTer) *AuthService {
	return &AuthService{users: users, captcha: captcha, jwt: jwt}
}

// Login 先消费验证码再校验密码
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	ok := s.captcha.Validate(ctx, in.CaptchaID, in.CaptchaValue)
	metrics.CaptchaValidations.WithLabelValues(metrics.Result(ok)).Inc()
	if !ok {
		return nil, apperr.BadRequest("invalid captcha")
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		metrics.Logins.WithLabelValues(metrics.Result(false)).Inc()
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.jwt.Issue(u)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	metrics.Logins.WithLabelValues(metrics.Result(true)).Inc()
	return &LoginResult{Token: token, User: u}, nil
}

// Me 返回最新的用户记录；权限仍以 token 中的角色为准
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthorized("user no longer exists")
	}
	return u, nil
}
