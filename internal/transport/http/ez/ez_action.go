package ez

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/domain"
	resp "go-sales-tracker/internal/transport/http/response"
)

// 上下文键，由鉴权中间件写入
const (
	KeyClaims = "claims"
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyActor  = "actor"
	KeyRID    = "rid"
)

// Options Expose=true 时 500 响应附带错误明细（非生产环境）
type Options struct {
	Log    *zap.Logger
	Expose bool
}

type EZ struct {
	g    *gin.RouterGroup
	opts Options
}

func New(g *gin.RouterGroup, opts Options) EZ {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return EZ{g: g, opts: opts}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Roles   []domain.Role // 为空不限角色
	Status  int           // 成功状态码，默认 200；204 不写 body
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 角色
		if len(a.Roles) > 0 && !hasRole(c, a.Roles) {
			e.Fail(c, apperr.Forbidden("forbidden"))
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			e.Fail(c, bindError(bindErr))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		if status == http.StatusNoContent {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

// Fail 统一错误映射：业务错误按状态码输出，其余记日志后 500
func (e EZ) Fail(c *gin.Context, err error) {
	if ae, ok := apperr.As(err); ok && ae.Status < http.StatusInternalServerError {
		c.AbortWithStatusJSON(ae.Status, resp.Error(ae.Message, ae.Details))
		return
	}
	e.opts.Log.Error("request failed",
		zap.String("rid", c.GetString(KeyRID)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	body := resp.Error(resp.MessageOf(http.StatusInternalServerError), nil)
	if e.opts.Expose {
		body.Details = []apperr.FieldError{{Message: err.Error()}}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

func hasRole(c *gin.Context, roles []domain.Role) bool {
	role, _ := c.Get(KeyRole)
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// ActorOf 取鉴权中间件写入的调用方
func ActorOf(c *gin.Context) (domain.Actor, error) {
	v, ok := c.Get(KeyActor)
	if !ok {
		return domain.Actor{}, apperr.Unauthorized("unauthorized")
	}
	a, ok := v.(domain.Actor)
	if !ok {
		return domain.Actor{}, apperr.Unauthorized("unauthorized")
	}
	return a, nil
}

// ParamID 路径 :id 必须是正整数
func ParamID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid id")
	}
	return uint(id), nil
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
