package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-sales-tracker/internal/apperr"
	"go-sales-tracker/internal/core/cache"
	"go-sales-tracker/internal/core/metrics"
	"go-sales-tracker/internal/domain"
)

const statsCacheKey = "sales:stats"

// SalePage 列表结果；Count/Total 不受分页影响
type SalePage struct {
	Data  []domain.Sale
	Count int64
	Total decimal.Decimal
}

type SaleService struct {
	sales    domain.SaleRepository
	cache    *cache.Cache
	statsTTL time.Duration
	log      *zap.Logger
}

func NewSaleService(sales domain.SaleRepository, c *cache.Cache, statsTTL time.Duration, log *zap.Logger) *SaleService {
	if c == nil {
		c = cache.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SaleService{sales: sales, cache: c, statsTTL: statsTTL, log: log}
}

func validateInput(in domain.SaleInput) (domain.SaleInput, error) {
	in = in.Normalize()
	if errs := in.Validate(); len(errs) > 0 {
		return in, apperr.Validation("validation failed", errs)
	}
	return in, nil
}

func authorize(actor domain.Actor, s *domain.Sale) error {
	if !domain.CanMutate(actor.Role, actor.ID, s.CreatedByID) {
		return apperr.Forbidden("you can only modify your own sales")
	}
	return nil
}

func (s *SaleService) Create(ctx context.Context, in domain.SaleInput, actor domain.Actor) (*domain.Sale, error) {
	in, err := validateInput(in)
	if err != nil {
		return nil, err
	}
	uid := actor.ID
	sale := &domain.Sale{
		Product:         in.Product,
		Status:          domain.StatusOpen,
		RequestedAmount: *in.RequestedAmount,
		Franchise:       in.Franchise,
		Rate:            in.Rate,
		CreatedByID:     actor.ID,
		UpdatedByID:     &uid,
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, s.mapWriteErr(err)
	}
	metrics.SalesCreated.WithLabelValues(string(sale.Product)).Inc()
	s.invalidateStats(ctx)
	return sale, nil
}

func (s *SaleService) Get(ctx context.Context, id uint) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperr.NotFound("sale not found")
	}
	return sale, nil
}

// List 所有已认证角色都能看到全部销售记录
func (s *SaleService) List(ctx context.Context, f domain.SaleFilter) (*SalePage, error) {
	data, err := s.sales.List(ctx, f)
	if err != nil {
		return nil, err
	}
	n, err := s.sales.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.sales.TotalRequested(ctx, f)
	if err != nil {
		return nil, err
	}
	return &SalePage{Data: data, Count: n, Total: total}, nil
}

func (s *SaleService) Count(ctx context.Context, f domain.SaleFilter) (int64, error) {
	return s.sales.Count(ctx, f)
}

func (s *SaleService) TotalRequested(ctx context.Context, f domain.SaleFilter) (decimal.Decimal, error) {
	return s.sales.TotalRequested(ctx, f)
}

func (s *SaleService) Update(ctx context.Context, id uint, in domain.SaleInput, actor domain.Actor) (*domain.Sale, error) {
	in, err := validateInput(in)
	if err != nil {
		return nil, err
	}
	sale, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, sale); err != nil {
		return nil, err
	}
	uid := actor.ID
	sale.Product = in.Product
	sale.RequestedAmount = *in.RequestedAmount
	sale.Franchise = in.Franchise
	sale.Rate = in.Rate
	sale.UpdatedByID = &uid
	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, s.mapWriteErr(err)
	}
	s.invalidateStats(ctx)
	return sale, nil
}

// UpdateStatus 状态之间任意流转
func (s *SaleService) UpdateStatus(ctx context.Context, id uint, status domain.SaleStatus, actor domain.Actor) (*domain.Sale, error) {
	if !status.Valid() {
		return nil, apperr.Validation("validation failed", []apperr.FieldError{
			{Field: "status", Message: "status must be one of: Abierto, En Proceso, Finalizado"},
		})
	}
	sale, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, sale); err != nil {
		return nil, err
	}
	uid := actor.ID
	sale.Status = status
	sale.UpdatedByID = &uid
	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, s.mapWriteErr(err)
	}
	metrics.SaleStatusChanges.WithLabelValues(string(status)).Inc()
	s.invalidateStats(ctx)
	return sale, nil
}

func (s *SaleService) Delete(ctx context.Context, id uint, actor domain.Actor) error {
	sale, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, sale); err != nil {
		return err
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *SaleService) Stats(ctx context.Context) (*domain.SalesStats, error) {
	v, ok := s.cache.Version(ctx, statsCacheKey)
	if !ok {
		return s.loadStats(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, cache.VersionedKey(statsCacheKey, v), s.statsTTL, s.loadStats)
}

func (s *SaleService) loadStats(ctx context.Context) (*domain.SalesStats, error) {
	byAdvisor, err := s.sales.StatsByAdvisor(ctx)
	if err != nil {
		return nil, err
	}
	byProduct, err := s.sales.StatsByProduct(ctx)
	if err != nil {
		return nil, err
	}
	byDate, err := s.sales.StatsByDate(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.SalesStats{SalesByAdvisor: byAdvisor, AmountByProduct: byProduct, SalesByDate: byDate}, nil
}

func (s *SaleService) invalidateStats(ctx context.Context) {
	if err := s.cache.Bump(ctx, statsCacheKey); err != nil {
		s.log.Warn("stats cache invalidate", zap.Error(err))
	}
}

// mapWriteErr 外键失败说明操作人账号已被删除
func (s *SaleService) mapWriteErr(err error) error {
	if isForeignKey(err) {
		return apperr.Unauthorized("account no longer exists")
	}
	return err
}
