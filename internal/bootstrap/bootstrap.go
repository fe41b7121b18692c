// Package bootstrap api 与 admin 两个入口共用的装配逻辑
package bootstrap

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-sales-tracker/internal/core/config"
	"go-sales-tracker/internal/core/database"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/repo"
	"go-sales-tracker/internal/service"
)

func OpenDB(ctx context.Context, cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.Open(ctx, database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
}

func Migrate(db *gorm.DB, l *zap.Logger) error {
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	l.Info("automigrate done")
	return nil
}

// SeedAdmin 邮箱已存在则跳过；返回是否新建
func SeedAdmin(ctx context.Context, users domain.UserRepository, s config.Seed, l *zap.Logger) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(s.AdminEmail))
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		l.Debug("seed admin exists", zap.String("email", email))
		return false, nil
	}
	u, err := service.NewUserService(users).Create(ctx, domain.NewUser{
		Name:     s.AdminName,
		Email:    email,
		Password: s.AdminPassword,
		Role:     string(domain.RoleAdmin),
	})
	if err != nil {
		return false, err
	}
	l.Info("seed admin created", zap.Uint("id", u.ID), zap.String("email", u.Email))
	return true, nil
}
