package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/core/captcha"
	"go-sales-tracker/internal/core/config"
	"go-sales-tracker/internal/core/server"
	"go-sales-tracker/internal/service"
	"go-sales-tracker/internal/transport/http/ez"
	mdw "go-sales-tracker/internal/transport/http/middleware"
	resp "go-sales-tracker/internal/transport/http/response"
)

type Deps struct {
	Log    *zap.Logger
	Mode   string
	Expose bool // 非生产环境 500 带明细
	Limits config.Limits

	JWT     *auth.JWTer
	Captcha *captcha.Service
	Auth    *service.AuthService
	Sales   *service.SaleService
	Users   *service.UserService
}

func NewAPIEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	ez.RegisterValidators()
	r := server.NewRouter(server.Options{Mode: d.Mode})

	// 中间件
	r.Use(mdw.RequestID())
	if d.Limits.RPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(d.Limits.RPS), d.Limits.Burst))
	}
	if d.Limits.MaxConcurrent > 0 {
		r.Use(mdw.ConcurrencyLimit(d.Limits.MaxConcurrent))
	}
	if d.Limits.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(d.Limits.MaxBodyBytes))
	}
	if d.Limits.TimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(d.Limits.TimeoutSec) * time.Second))
	}
	r.Use(
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "") })

	api := r.Group("/api")
	opts := ez.Options{Log: d.Log, Expose: d.Expose}
	public := publicLimiter(d.Limits)

	var reg Registry
	reg.Register(
		&captchaModule{opts: opts, svc: d.Captcha, limit: public},
		&authModule{opts: opts, svc: d.Auth, jwt: d.JWT, limit: public},
		&saleModule{opts: opts, svc: d.Sales, jwt: d.JWT},
		&userModule{opts: opts, svc: d.Users, jwt: d.JWT},
	)
	reg.MountAll(api)
	return r
}

// publicLimiter 登录和验证码按 IP 限速
func publicLimiter(l config.Limits) gin.HandlerFunc {
	if l.LoginRPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return mdw.RateLimitPerIP(rate.Limit(l.LoginRPS), l.LoginBurst)
}
