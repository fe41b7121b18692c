package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/feature/sale"
)

var saleSortColumns = map[string]string{
	"id":              "id",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"requestedAmount": "requested_amount",
	"product":         "product",
	"status":          "status",
	"rate":            "rate",
}

type SaleRepo struct{ db *gorm.DB }

func NewSaleRepo(db *gorm.DB) *SaleRepo { return &SaleRepo{db: db} }

func (r *SaleRepo) withOwners(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("CreatedBy").Preload("UpdatedBy")
}

// applyFilter list/count/sum 共用
func applyFilter(tx *gorm.DB, f domain.SaleFilter) *gorm.DB {
	if f.Product != "" {
		tx = tx.Where("product = ?", string(f.Product))
	}
	if f.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *f.CreatedTo)
	}
	if f.CreatedBefore != nil {
		tx = tx.Where("created_at < ?", *f.CreatedBefore)
	}
	return tx
}

func (r *SaleRepo) Create(ctx context.Context, s *domain.Sale) error {
	m := sale.FromDomain(s)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	return r.reload(ctx, m.ID, s)
}

func (r *SaleRepo) FindByID(ctx context.Context, id uint) (*domain.Sale, error) {
	var m sale.SaleModel
	err := r.withOwners(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *SaleRepo) reload(ctx context.Context, id uint, dst *domain.Sale) error {
	got, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if got == nil {
		return gorm.ErrRecordNotFound
	}
	*dst = *got
	return nil
}

func (r *SaleRepo) List(ctx context.Context, f domain.SaleFilter) ([]domain.Sale, error) {
	tx := applyFilter(r.withOwners(ctx).Model(&sale.SaleModel{}), f)
	if col, ok := saleSortColumns[f.SortBy]; ok {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.SortDesc})
		if col != "id" {
			tx = tx.Order("id desc")
		}
	} else {
		tx = tx.Order("created_at desc").Order("id desc")
	}
	if f.Paginated() {
		tx = tx.Offset(f.Offset()).Limit(f.Limit)
	}
	var rows []sale.SaleModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Sale, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

func (r *SaleRepo) Count(ctx context.Context, f domain.SaleFilter) (int64, error) {
	var n int64
	err := applyFilter(r.db.WithContext(ctx).Model(&sale.SaleModel{}), f).Count(&n).Error
	return n, err
}

func (r *SaleRepo) TotalRequested(ctx context.Context, f domain.SaleFilter) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := applyFilter(r.db.WithContext(ctx).Model(&sale.SaleModel{}), f).
		Select("COALESCE(SUM(requested_amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Update 只写可变列；created_by 不可改
func (r *SaleRepo) Update(ctx context.Context, s *domain.Sale) error {
	m := sale.FromDomain(s)
	err := r.db.WithContext(ctx).Model(m).Omit(clause.Associations).
		Select("product", "status", "requested_amount", "franchise", "rate", "updated_by", "updated_at").
		Updates(m).Error
	if err != nil {
		return err
	}
	return r.reload(ctx, m.ID, s)
}

func (r *SaleRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&sale.SaleModel{}, id).Error
}

type advisorRow struct {
	AdvisorID   uint
	AdvisorName string
	SaleCount   int64
	Total       decimal.Decimal
}

func (r *SaleRepo) StatsByAdvisor(ctx context.Context) ([]domain.AdvisorStat, error) {
	var rows []advisorRow
	err := r.db.WithContext(ctx).Table("sales AS s").
		Select("u.id AS advisor_id, u.name AS advisor_name, COUNT(s.id) AS sale_count, COALESCE(SUM(s.requested_amount), 0) AS total").
		Joins("JOIN users u ON u.id = s.created_by").
		Group("u.id, u.name").
		Order("sale_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AdvisorStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AdvisorStat{AdvisorID: row.AdvisorID, AdvisorName: row.AdvisorName, Count: row.SaleCount, Total: row.Total})
	}
	return out, nil
}

type productRow struct {
	Product   string
	SaleCount int64
	Total     decimal.Decimal
}

func (r *SaleRepo) StatsByProduct(ctx context.Context) ([]domain.ProductStat, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).Model(&sale.SaleModel{}).
		Select("product, COUNT(id) AS sale_count, COALESCE(SUM(requested_amount), 0) AS total").
		Group("product").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ProductStat{Product: domain.Product(row.Product), Count: row.SaleCount, Total: row.Total})
	}
	return out, nil
}

type dateRow struct {
	Day       time.Time
	SaleCount int64
	Total     decimal.Decimal
}

func (r *SaleRepo) StatsByDate(ctx context.Context) ([]domain.DateStat, error) {
	var rows []dateRow
	err := r.db.WithContext(ctx).Model(&sale.SaleModel{}).
		Select("DATE(created_at) AS day, COUNT(id) AS sale_count, COALESCE(SUM(requested_amount), 0) AS total").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.DateStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DateStat{Date: row.Day.Format("2006-01-02"), Count: row.SaleCount, Total: row.Total})
	}
	return out, nil
}
