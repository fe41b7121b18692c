// Package repotest 内存版仓储，供 service / http 测试使用
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-sales-tracker/internal/domain"
)

type Users struct {
	mu   sync.Mutex
	next uint
	rows map[uint]domain.User
}

func NewUsers() *Users { return &Users{rows: map[uint]domain.User{}} }

func (r *Users) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.next++
	now := time.Now()
	u.ID, u.CreatedAt, u.UpdatedAt = r.next, now, now
	r.rows[u.ID] = *u
	return nil
}

func (r *Users) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Users) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for id, x := range r.rows {
		if id != u.ID && x.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.UpdatedAt = time.Now()
	r.rows[u.ID] = *u
	return nil
}

func (r *Users) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// Sales 依赖 Users 做外键和 createdBy 填充
type Sales struct {
	mu    sync.Mutex
	next  uint
	rows  map[uint]domain.Sale
	users *Users
	// Clock 测试可替换
	Clock func() time.Time
}

func NewSales(users *Users) *Sales {
	return &Sales{rows: map[uint]domain.Sale{}, users: users, Clock: time.Now}
}

func (r *Sales) owner(id uint) *domain.User {
	u, _ := r.users.FindByID(context.Background(), id)
	return u
}

func (r *Sales) hydrate(s domain.Sale) domain.Sale {
	s.CreatedBy = r.owner(s.CreatedByID)
	if s.UpdatedByID != nil {
		s.UpdatedBy = r.owner(*s.UpdatedByID)
	}
	return s
}

func (r *Sales) Create(_ context.Context, s *domain.Sale) error {
	if r.owner(s.CreatedByID) == nil {
		return gorm.ErrForeignKeyViolated
	}
	r.mu.Lock()
	r.next++
	now := r.Clock()
	s.ID, s.CreatedAt, s.UpdatedAt = r.next, now, now
	if s.Status == "" {
		s.Status = domain.StatusOpen
	}
	r.rows[s.ID] = *s
	r.mu.Unlock()
	*s = r.hydrate(*s)
	return nil
}

func (r *Sales) FindByID(_ context.Context, id uint) (*domain.Sale, error) {
	r.mu.Lock()
	s, ok := r.rows[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	s = r.hydrate(s)
	return &s, nil
}

func match(s domain.Sale, f domain.SaleFilter) bool {
	if f.Product != "" && s.Product != f.Product {
		return false
	}
	if f.CreatedFrom != nil && s.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && s.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.CreatedBefore != nil && !s.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

func (r *Sales) filtered(f domain.SaleFilter) []domain.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Sale
	for _, s := range r.rows {
		if match(s, f) {
			out = append(out, s)
		}
	}
	return out
}

func (r *Sales) List(_ context.Context, f domain.SaleFilter) ([]domain.Sale, error) {
	rows := r.filtered(f)
	less := func(a, b domain.Sale) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
	switch f.SortBy {
	case "id":
		less = func(a, b domain.Sale) bool { return (a.ID < b.ID) != f.SortDesc }
	case "requestedAmount":
		less = func(a, b domain.Sale) bool {
			if f.SortDesc {
				return a.RequestedAmount.GreaterThan(b.RequestedAmount)
			}
			return a.RequestedAmount.LessThan(b.RequestedAmount)
		}
	case "product":
		less = func(a, b domain.Sale) bool { return (a.Product < b.Product) != f.SortDesc }
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if f.Paginated() {
		off := f.Offset()
		if off >= len(rows) {
			rows = nil
		} else {
			end := off + f.Limit
			if end > len(rows) {
				end = len(rows)
			}
			rows = rows[off:end]
		}
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, s := range rows {
		out = append(out, r.hydrate(s))
	}
	return out, nil
}

func (r *Sales) Count(_ context.Context, f domain.SaleFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r *Sales) TotalRequested(_ context.Context, f domain.SaleFilter) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range r.filtered(f) {
		total = total.Add(s.RequestedAmount)
	}
	return total, nil
}

func (r *Sales) Update(_ context.Context, s *domain.Sale) error {
	r.mu.Lock()
	prev, ok := r.rows[s.ID]
	if !ok {
		r.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	s.CreatedByID, s.CreatedAt = prev.CreatedByID, prev.CreatedAt
	s.UpdatedAt = r.Clock()
	r.rows[s.ID] = *s
	r.mu.Unlock()
	*s = r.hydrate(*s)
	return nil
}

func (r *Sales) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *Sales) StatsByAdvisor(context.Context) ([]domain.AdvisorStat, error) {
	agg := map[uint]*domain.AdvisorStat{}
	for _, s := range r.filtered(domain.SaleFilter{}) {
		st, ok := agg[s.CreatedByID]
		if !ok {
			st = &domain.AdvisorStat{AdvisorID: s.CreatedByID}
			if u := r.owner(s.CreatedByID); u != nil {
				st.AdvisorName = u.Name
			}
			agg[s.CreatedByID] = st
		}
		st.Count++
		st.Total = st.Total.Add(s.RequestedAmount)
	}
	out := make([]domain.AdvisorStat, 0, len(agg))
	for _, st := range agg {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (r *Sales) StatsByProduct(context.Context) ([]domain.ProductStat, error) {
	agg := map[domain.Product]*domain.ProductStat{}
	for _, s := range r.filtered(domain.SaleFilter{}) {
		st, ok := agg[s.Product]
		if !ok {
			st = &domain.ProductStat{Product: s.Product}
			agg[s.Product] = st
		}
		st.Count++
		st.Total = st.Total.Add(s.RequestedAmount)
	}
	out := make([]domain.ProductStat, 0, len(agg))
	for _, st := range agg {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (r *Sales) StatsByDate(context.Context) ([]domain.DateStat, error) {
	agg := map[string]*domain.DateStat{}
	for _, s := range r.filtered(domain.SaleFilter{}) {
		day := s.CreatedAt.Format("2006-01-02")
		st, ok := agg[day]
		if !ok {
			st = &domain.DateStat{Date: day}
			agg[day] = st
		}
		st.Count++
		st.Total = st.Total.Add(s.RequestedAmount)
	}
	out := make([]domain.DateStat, 0, len(agg))
	for _, st := range agg {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
