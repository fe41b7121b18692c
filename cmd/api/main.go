package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-sales-tracker/internal/bootstrap"
	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/core/cache"
	"go-sales-tracker/internal/core/captcha"
	"go-sales-tracker/internal/core/config"
	"go-sales-tracker/internal/core/database"
	"go-sales-tracker/internal/core/logger"
	"go-sales-tracker/internal/core/server"
	"go-sales-tracker/internal/repo"
	"go-sales-tracker/internal/service"
	"go-sales-tracker/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.FromConfig(cfg.Log, cfg.App.Name)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 数据库（失败直接 Fatal）
	db, err := bootstrap.OpenDB(ctx, cfg, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := bootstrap.Migrate(db, log); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
	}

	userRepo := repo.NewUserRepo(db)
	saleRepo := repo.NewSaleRepo(db)
	if _, err := bootstrap.SeedAdmin(ctx, userRepo, cfg.Seed, log); err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}

	// Redis 可选：验证码共享存储 + 统计缓存
	statsCache := cache.New(nil)
	var captchaStore captcha.Store
	if cfg.Redis.Enabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		statsCache = cache.New(rdb)
		if cfg.Captcha.Store == "redis" {
			captchaStore = captcha.NewRedisStore(rdb)
		}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}
	if captchaStore == nil {
		mem := captcha.NewMemoryStore(time.Minute)
		defer mem.Stop()
		captchaStore = mem
	}

	captchaTTL := time.Duration(cfg.Captcha.TTLSec) * time.Second
	captchaSvc := captcha.NewService(
		captchaStore,
		captcha.NewImageGenerator(cfg.Captcha.Length, cfg.Captcha.Width, cfg.Captcha.Height),
		captchaTTL,
		log.Named("captcha"),
	)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	if cfg.App.IsProduction() && cfg.JWT.Secret == "change-me" {
		log.Fatal("jwt.secret must be set in production")
	}

	mode := gin.DebugMode
	if cfg.App.IsProduction() {
		mode = gin.ReleaseMode
	}
	r := router.NewAPIEngine(router.Deps{
		Log:     log,
		Mode:    mode,
		Expose:  !cfg.App.IsProduction(),
		Limits:  cfg.Limits,
		JWT:     jwter,
		Captcha: captchaSvc,
		Auth:    service.NewAuthService(userRepo, captchaSvc, jwter),
		Sales:   service.NewSaleService(saleRepo, statsCache, time.Duration(cfg.Stats.CacheTTLSec)*time.Second, log.Named("sales")),
		Users:   service.NewUserService(userRepo),
	})

	// HTTP Server
	errLog, _ := logger.ToStdLogger(log, zapcore.ErrorLevel)
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		errLog,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := fmt.Sprintf("http://%s:%d", host4human, cfg.App.HTTP.Port)
	log.Info("sales api starting",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	// 阻塞到收到信号，然后优雅关闭
	if err := server.StartHTTP(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("sales api FAILED", zap.Error(err))
	}
	log.Info("sales api stopped gracefully")
}
