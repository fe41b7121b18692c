package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/service"
	"go-sales-tracker/internal/transport/http/ez"
	mdw "go-sales-tracker/internal/transport/http/middleware"
)

type saleModule struct {
	opts ez.Options
	svc  *service.SaleService
	jwt  *auth.JWTer
}

type saleListQuery struct {
	Product     string `form:"product"     binding:"omitempty,product"`
	CreatedFrom string `form:"createdFrom"`
	CreatedTo   string `form:"createdTo"`
	Page        int    `form:"page"        binding:"omitempty,min=1,max=1000000"`
	Limit       int    `form:"limit"       binding:"omitempty,min=1,max=100"`
	SortBy      string `form:"sortBy"      binding:"omitempty,oneof=id createdAt updatedAt requestedAmount product status rate"`
	SortOrder   string `form:"sortOrder"   binding:"omitempty,oneof=ASC DESC asc desc"`
}

type saleListOut struct {
	Data                 []domain.Sale   `json:"data"`
	TotalRequestedAmount decimal.Decimal `json:"totalRequestedAmount"`
	Count                int64           `json:"count"`
	Page                 int             `json:"page,omitempty"`
	Limit                int             `json:"limit,omitempty"`
}

type saleBody struct {
	Product         domain.Product    `json:"product"`
	RequestedAmount *decimal.Decimal  `json:"requestedAmount"`
	Franchise       *domain.Franchise `json:"franchise"`
	Rate            *decimal.Decimal  `json:"rate"`
}

func (b *saleBody) input() domain.SaleInput {
	return domain.SaleInput{Product: b.Product, RequestedAmount: b.RequestedAmount, Franchise: b.Franchise, Rate: b.Rate}
}

type statusBody struct {
	Status domain.SaleStatus `json:"status" binding:"required,salestatus"`
}

func (m *saleModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/sales", mdw.AuthJWT(m.jwt, domain.RoleAdmin, domain.RoleAdvisor))
	e := ez.New(g, m.opts)

	ez.RegisterAction(e, ez.Action[saleListQuery, saleListOut]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *saleListQuery) (saleListOut, error) {
			f, err := in.filter()
			if err != nil {
				return saleListOut{}, err
			}
			page, err := m.svc.List(c.Request.Context(), f)
			if err != nil {
				return saleListOut{}, err
			}
			return saleListOut{
				Data:                 page.Data,
				TotalRequestedAmount: page.Total,
				Count:                page.Count,
				Page:                 in.Page,
				Limit:                in.Limit,
			}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.SalesStats]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.SalesStats, error) {
			return m.svc.Stats(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Sale]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Sale, error) {
			id, err := ez.ParamID(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Get(c.Request.Context(), id)
		},
	})

	ez.RegisterAction(e, ez.Action[saleBody, *domain.Sale]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *saleBody) (*domain.Sale, error) {
			actor, err := ez.ActorOf(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Create(c.Request.Context(), in.input(), actor)
		},
	})

	ez.RegisterAction(e, ez.Action[saleBody, *domain.Sale]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *saleBody) (*domain.Sale, error) {
			id, actor, err := idAndActor(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Update(c.Request.Context(), id, in.input(), actor)
		},
	})

	ez.RegisterAction(e, ez.Action[statusBody, *domain.Sale]{
		Method: http.MethodPatch,
		Path:   "/:id/status",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *statusBody) (*domain.Sale, error) {
			id, actor, err := idAndActor(c)
			if err != nil {
				return nil, err
			}
			return m.svc.UpdateStatus(c.Request.Context(), id, in.Status, actor)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, actor, err := idAndActor(c)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, m.svc.Delete(c.Request.Context(), id, actor)
		},
	})
}

func idAndActor(c *gin.Context) (uint, domain.Actor, error) {
	id, err := ez.ParamID(c)
	if err != nil {
		return 0, domain.Actor{}, err
	}
	actor, err := ez.ActorOf(c)
	return id, actor, err
}

const dateOnly = "2006-01-02"

// parseInstant 接受 RFC3339 或 YYYY-MM-DD（按 UTC 零点）
func parseInstant(s string) (time.Time, bool, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

func (q *saleListQuery) filter() (domain.SaleFilter, error) {
	f := domain.SaleFilter{
		Product: domain.Product(q.Product),
		Page:    q.Page,
		Limit:   q.Limit,
		SortBy:  q.SortBy,
	}
	if q.SortBy != "" {
		f.SortDesc = !strings.EqualFold(q.SortOrder, "ASC")
	}

	var details []apperr.FieldError
	if q.CreatedFrom != "" {
		t, _, ok := parseInstant(q.CreatedFrom)
		if !ok {
			details = append(details, apperr.FieldError{Field: "createdFrom", Message: "createdFrom must be an RFC3339 timestamp or a YYYY-MM-DD date"})
		} else {
			f.CreatedFrom = &t
		}
	}
	if q.CreatedTo != "" {
		t, day, ok := parseInstant(q.CreatedTo)
		switch {
		case !ok:
			details = append(details, apperr.FieldError{Field: "createdTo", Message: "createdTo must be an RFC3339 timestamp or a YYYY-MM-DD date"})
		case day:
			// 仅日期：覆盖当天全部
			next := t.AddDate(0, 0, 1)
			f.CreatedBefore = &next
		default:
			f.CreatedTo = &t
		}
	}
	if len(details) > 0 {
		return f, apperr.Validation("validation failed", details)
	}
	return f, nil
}
