package service

import (
	"context"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/pkg/utils"
)

// UserService 仅管理员可调用，权限由路由层保证
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, apperr.BadRequest("invalid role")
	}
	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

// Update 只改传了的字段
func (s *UserService) Update(ctx context.Context, id uint, p domain.UserPatch) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != nil {
		role, ok := domain.ParseRole(*p.Role)
		if !ok {
			return nil, apperr.BadRequest("invalid role")
		}
		u.Role = role
	}
	if p.Email != nil && *p.Email != u.Email {
		if err := s.ensureEmailFree(ctx, *p.Email, u.ID); err != nil {
			return nil, err
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if isForeignKey(err) {
			return apperr.Conflict("user has registered sales")
		}
		return err
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, self uint) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return apperr.Conflict("email already registered")
	}
	return nil
}
