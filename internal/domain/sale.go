package domain

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"go-sales-tracker/internal/apperr"
)

func init() {
	// 金额以 JSON number 输出
	decimal.MarshalJSONWithoutQuotes = true
}

type Product string

const (
	ProductConsumerCredit Product = "Credito de Consumo"
	ProductPayrollLoan    Product = "Libranza Libre Inversión"
	ProductCreditCard     Product = "Tarjeta de Credito"
)

var Products = []Product{ProductConsumerCredit, ProductPayrollLoan, ProductCreditCard}

func (p Product) Valid() bool {
	switch p {
	case ProductConsumerCredit, ProductPayrollLoan, ProductCreditCard:
		return true
	}
	return false
}

// RequiresRate 信用类产品必须带利率；信用卡必须带卡组织
func (p Product) RequiresRate() bool {
	return p == ProductConsumerCredit || p == ProductPayrollLoan
}

type Franchise string

const (
	FranchiseAmex       Franchise = "AMEX"
	FranchiseVisa       Franchise = "VISA"
	FranchiseMastercard Franchise = "MASTERCARD"
)

func (f Franchise) Valid() bool {
	return f == FranchiseAmex || f == FranchiseVisa || f == FranchiseMastercard
}

type SaleStatus string

const (
	StatusOpen       SaleStatus = "Abierto"
	StatusInProgress SaleStatus = "En Proceso"
	StatusClosed     SaleStatus = "Finalizado"
)

func (s SaleStatus) Valid() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusClosed
}

var (
	maxRequestedAmount = decimal.New(1, 13) // numeric(15,2)
	maxRate            = decimal.RequireFromString("99.99")
)

type Sale struct {
	ID              uint             `json:"id"`
	Product         Product          `json:"product"`
	Status          SaleStatus       `json:"status"`
	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	Franchise       *Franchise       `json:"franchise"`
	Rate            *decimal.Decimal `json:"rate"`
	CreatedByID     uint             `json:"-"`
	CreatedBy       *User            `json:"createdBy"`
	UpdatedByID     *uint            `json:"-"`
	UpdatedBy       *User            `json:"updatedBy"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// SaleInput create / update 共用
type SaleInput struct {
	Product         Product
	RequestedAmount *decimal.Decimal
	Franchise       *Franchise
	Rate            *decimal.Decimal
}

// Validate returns one entry per violated rule; empty means the input is acceptable.
// Exactly one of franchise/rate is allowed and which one depends on the product.
func (in SaleInput) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	add := func(field, msg string) { errs = append(errs, apperr.FieldError{Field: field, Message: msg}) }

	if !in.Product.Valid() {
		add("product", "product must be one of: Credito de Consumo, Libranza Libre Inversión, Tarjeta de Credito")
	}

	switch {
	case in.RequestedAmount == nil:
		add("requestedAmount", "requestedAmount is required")
	case !in.RequestedAmount.IsPositive():
		add("requestedAmount", "requestedAmount must be greater than 0")
	case !hasScale2(*in.RequestedAmount):
		add("requestedAmount", "requestedAmount must have at most 2 decimal places")
	case in.RequestedAmount.GreaterThanOrEqual(maxRequestedAmount):
		add("requestedAmount", "requestedAmount is too large")
	}

	if in.Product == ProductCreditCard {
		switch {
		case in.Franchise == nil || *in.Franchise == "":
			add("franchise", "franchise is required for credit cards")
		case !in.Franchise.Valid():
			add("franchise", "franchise must be AMEX, VISA or MASTERCARD")
		}
	} else if in.Franchise != nil && *in.Franchise != "" {
		add("franchise", "franchise is only allowed for credit cards")
	}

	if in.Product.RequiresRate() {
		switch {
		case in.Rate == nil:
			add("rate", "rate is required for consumer credits and payroll loans")
		case in.Rate.IsNegative() || in.Rate.GreaterThan(maxRate):
			add("rate", "rate must be between 0.00 and 99.99")
		case !hasScale2(*in.Rate):
			add("rate", "rate must have at most 2 decimal places")
		}
	} else if in.Rate != nil {
		add("rate", "rate only applies to consumer credits and payroll loans")
	}

	return errs
}

func hasScale2(d decimal.Decimal) bool { return d.Equal(d.Truncate(2)) }

// Normalize 清掉不适用的字段（空字符串卡组织视为未提供）
func (in SaleInput) Normalize() SaleInput {
	if in.Franchise != nil && *in.Franchise == "" {
		in.Franchise = nil
	}
	return in
}

var SaleSortFields = []string{"id", "createdAt", "updatedAt", "requestedAmount", "product", "status", "rate"}

func ValidSaleSortField(s string) bool {
	for _, f := range SaleSortFields {
		if f == s {
			return true
		}
	}
	return false
}

// SaleFilter 列表/计数/求和共用同一个谓词
type SaleFilter struct {
	Product       Product
	CreatedFrom   *time.Time // >=
	CreatedTo     *time.Time // <=
	CreatedBefore *time.Time // <，仅日期形式的 createdTo 用它覆盖整天
	Page          int
	Limit         int
	SortBy        string
	SortDesc      bool
}

// Paginated page 与 limit 同时给出才分页
func (f SaleFilter) Paginated() bool { return f.Page > 0 && f.Limit > 0 }

// Offset 溢出时封顶为 math.MaxInt，结果为空页
func (f SaleFilter) Offset() int {
	if !f.Paginated() {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

type AdvisorStat struct {
	AdvisorID   uint            `json:"advisorId"`
	AdvisorName string          `json:"advisorName"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

type ProductStat struct {
	Product Product         `json:"product"`
	Count   int64           `json:"count"`
	Total   decimal.Decimal `json:"total"`
}

type DateStat struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type SalesStats struct {
	SalesByAdvisor  []AdvisorStat `json:"salesByAdvisor"`
	AmountByProduct []ProductStat `json:"amountByProduct"`
	SalesByDate     []DateStat    `json:"salesByDate"`
}

// SaleRepository 查不到时返回 (nil, nil)
type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id uint) (*Sale, error)
	List(ctx context.Context, f SaleFilter) ([]Sale, error)
	Count(ctx context.Context, f SaleFilter) (int64, error)
	TotalRequested(ctx context.Context, f SaleFilter) (decimal.Decimal, error)
	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, id uint) error
	StatsByAdvisor(ctx context.Context) ([]AdvisorStat, error)
	StatsByProduct(ctx context.Context) ([]ProductStat, error)
	StatsByDate(ctx context.Context) ([]DateStat, error)
}
