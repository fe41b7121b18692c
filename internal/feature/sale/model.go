package sale

import (
	"time"

	"github.com/shopspring/decimal"

	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/feature/user"
)

type SaleModel struct {
	ID              uint                `gorm:"primaryKey"`
	Product         string              `gorm:"size:32;not null;index"`
	Status          string              `gorm:"size:16;not null;default:Abierto"`
	RequestedAmount decimal.Decimal     `gorm:"type:numeric(15,2);not null"`
	Franchise       *string             `gorm:"size:16"`
	Rate            decimal.NullDecimal `gorm:"type:numeric(5,2)"`

	CreatedByID uint            `gorm:"column:created_by;not null;index"`
	CreatedBy   *user.UserModel `gorm:"foreignKey:CreatedByID"`
	UpdatedByID *uint           `gorm:"column:updated_by"`
	UpdatedBy   *user.UserModel `gorm:"foreignKey:UpdatedByID;constraint:OnDelete:SET NULL"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SaleModel) TableName() string { return "sales" }

func (m *SaleModel) ToDomain() *domain.Sale {
	s := &domain.Sale{
		ID:              m.ID,
		Product:         domain.Product(m.Product),
		Status:          domain.SaleStatus(m.Status),
		RequestedAmount: m.RequestedAmount,
		CreatedByID:     m.CreatedByID,
		CreatedBy:       m.CreatedBy.ToDomain(),
		UpdatedByID:     m.UpdatedByID,
		UpdatedBy:       m.UpdatedBy.ToDomain(),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Franchise != nil {
		f := domain.Franchise(*m.Franchise)
		s.Franchise = &f
	}
	if m.Rate.Valid {
		r := m.Rate.Decimal
		s.Rate = &r
	}
	return s
}

// FromDomain 关联对象不回写，只写外键列
func FromDomain(s *domain.Sale) *SaleModel {
	m := &SaleModel{
		ID:              s.ID,
		Product:         string(s.Product),
		Status:          string(s.Status),
		RequestedAmount: s.RequestedAmount,
		CreatedByID:     s.CreatedByID,
		UpdatedByID:     s.UpdatedByID,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Franchise != nil {
		f := string(*s.Franchise)
		m.Franchise = &f
	}
	if s.Rate != nil {
		m.Rate = decimal.NullDecimal{Decimal: *s.Rate, Valid: true}
	}
	return m
}
