package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/core/captcha"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/repo/repotest"
	"go-sales-tracker/internal/service"
	"go-sales-tracker/pkg/utils"
)

type fixedGen struct{}

func (fixedGen) Generate() (string, string, error) { return "Qw3rTy", "data:image/png;base64,AA==", nil }

type apiFixture struct {
	r     *gin.Engine
	jwt   *auth.JWTer
	users *repotest.Users
	admin *domain.User
	ana   *domain.User
	bruno *domain.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	users := repotest.NewUsers()
	sales := repotest.NewSales(users)
	j := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "sales-api", TTL: time.Hour}
	cs := captcha.NewService(captcha.NewMemoryStore(0), fixedGen{}, time.Minute, nil)

	f := &apiFixture{jwt: j, users: users}
	f.admin = f.seed(t, "Admin", "admin@konecta.local", domain.RoleAdmin)
	f.ana = f.seed(t, "Ana", "ana@konecta.local", domain.RoleAdvisor)
	f.bruno = f.seed(t, "Bruno", "bruno@konecta.local", domain.RoleAdvisor)

	f.r = NewAPIEngine(Deps{
		Mode:    gin.TestMode,
		Expose:  true,
		JWT:     j,
		Captcha: cs,
		Auth:    service.NewAuthService(users, cs, j),
		Sales:   service.NewSaleService(sales, nil, time.Minute, nil),
		Users:   service.NewUserService(users),
	})
	return f
}

func (f *apiFixture) seed(t *testing.T, name, email string, role domain.Role) *domain.User {
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *apiFixture) token(t *testing.T, u *domain.User) string {
	tok, err := f.jwt.Issue(u)
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type saleJSON struct {
	ID              uint     `json:"id"`
	Product         string   `json:"product"`
	Status          string   `json:"status"`
	RequestedAmount float64  `json:"requestedAmount"`
	Franchise       *string  `json:"franchise"`
	Rate            *float64 `json:"rate"`
	CreatedBy       struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"createdBy"`
}

type errorJSON struct {
	Message string `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func (f *apiFixture) createSale(t *testing.T, token, body string) saleJSON {
	t.Helper()
	w := f.do(http.MethodPost, "/api/sales", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[saleJSON](t, w)
}

const (
	cardBody = `{"product":"Tarjeta de Credito","requestedAmount":1500.50,"franchise":"VISA"}`
	loanBody = `{"product":"Credito de Consumo","requestedAmount":2000,"rate":12.5}`
)

func TestLoginFlow(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/captcha", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	ch := decode[struct {
		ID        string `json:"id"`
		Data      string `json:"data"`
		ExpiresAt int64  `json:"expiresAt"`
	}](t, w)
	assert.NotEmpty(t, ch.ID)
	assert.Greater(t, ch.ExpiresAt, time.Now().UnixMilli())

	body := `{"email":"ana@konecta.local","password":"secret123","captchaId":"` + ch.ID + `","captchaValue":"qw3rty"}`
	w = f.do(http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID    uint   `json:"id"`
			Role  string `json:"role"`
			Email string `json:"email"`
		} `json:"user"`
	}](t, w)
	assert.Equal(t, "Asesor", res.User.Role)
	assert.NotContains(t, w.Body.String(), "password")

	claims, err := f.jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdvisor, claims.Role)

	// 同一验证码再次使用
	w = f.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid captcha", decode[errorJSON](t, w).Message)

	w = f.do(http.MethodGet, "/api/auth/me", res.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ana"`)
}

func TestLoginBadCredentialsAndValidation(t *testing.T) {
	f := newAPIFixture(t)
	ch, err := captchaID(f)
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"ana@konecta.local","password":"wrongpass","captchaId":"`+ch+`","captchaValue":"QW3RTY"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/auth/login", "", `{"email":"not-an-email","password":"x","captchaId":"abc","captchaValue":"1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := map[string]bool{}
	for _, d := range decode[errorJSON](t, w).Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["captchaId"])
	assert.True(t, fields["captchaValue"])
}

func captchaID(f *apiFixture) (string, error) {
	w := f.do(http.MethodGet, "/api/captcha", "", "")
	var out struct {
		ID string `json:"id"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &out)
	return out.ID, err
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/sales", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, decode[errorJSON](t, w).Message)

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	f.r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := &auth.JWTer{Secret: []byte("other"), Issuer: "sales-api", TTL: time.Hour}
	forged, err := other.Issue(f.admin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/sales", forged, "").Code)
}

func TestSaleOwnership(t *testing.T) {
	f := newAPIFixture(t)
	ana, bruno, admin := f.token(t, f.ana), f.token(t, f.bruno), f.token(t, f.admin)

	s := f.createSale(t, ana, cardBody)
	assert.Equal(t, "Abierto", s.Status)
	assert.Equal(t, 1500.5, s.RequestedAmount)
	assert.Nil(t, s.Rate)
	assert.Equal(t, f.ana.ID, s.CreatedBy.ID)

	path := "/api/sales/" + itoa(s.ID)
	w := f.do(http.MethodPut, path, bruno, loanBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPut, path, admin, loanBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[saleJSON](t, w)
	assert.Equal(t, "Credito de Consumo", got.Product)
	assert.Nil(t, got.Franchise)
	require.NotNil(t, got.Rate)
	assert.Equal(t, 12.5, *got.Rate)

	// 读取不受归属限制
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, path, bruno, "").Code)
}

func TestSaleStatusAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	ana, bruno := f.token(t, f.ana), f.token(t, f.bruno)
	s := f.createSale(t, ana, cardBody)
	path := "/api/sales/" + itoa(s.ID)

	w := f.do(http.MethodPatch, path+"/status", ana, `{"status":"Finalizado"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Finalizado", decode[saleJSON](t, w).Status)

	w = f.do(http.MethodPatch, path+"/status", ana, `{"status":"Abierto"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Abierto", decode[saleJSON](t, w).Status)

	w = f.do(http.MethodPatch, path+"/status", ana, `{"status":"Cerrado"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, bruno, "").Code)

	w = f.do(http.MethodDelete, path, ana, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, ana, "").Code)
}

func TestSaleListFilterAndTotal(t *testing.T) {
	f := newAPIFixture(t)
	ana, bruno := f.token(t, f.ana), f.token(t, f.bruno)
	f.createSale(t, ana, cardBody)
	f.createSale(t, bruno, `{"product":"Tarjeta de Credito","requestedAmount":499.50,"franchise":"AMEX"}`)
	f.createSale(t, ana, loanBody)

	w := f.do(http.MethodGet, "/api/sales?product=Tarjeta%20de%20Credito", bruno, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[struct {
		Data  []saleJSON `json:"data"`
		Total float64    `json:"totalRequestedAmount"`
		Count int64      `json:"count"`
	}](t, w)
	require.Len(t, out.Data, 2)
	for _, s := range out.Data {
		assert.Equal(t, "Tarjeta de Credito", s.Product)
	}
	assert.Equal(t, 2000.0, out.Total)
	assert.Equal(t, int64(2), out.Count)

	w = f.do(http.MethodGet, "/api/sales?page=1&limit=1&sortBy=requestedAmount&sortOrder=ASC", ana, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paged := decode[struct {
		Data  []saleJSON `json:"data"`
		Count int64      `json:"count"`
		Page  int        `json:"page"`
		Limit int        `json:"limit"`
	}](t, w)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, 499.5, paged.Data[0].RequestedAmount)
	assert.Equal(t, int64(3), paged.Count)
	assert.Equal(t, 1, paged.Page)

	today := time.Now().UTC().Format("2006-01-02")
	w = f.do(http.MethodGet, "/api/sales?createdFrom="+today+"&createdTo="+today, ana, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Data []saleJSON `json:"data"`
	}](t, w).Data, 3)

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodGet, "/api/sales?product=Hipoteca", ana, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodGet, "/api/sales?limit=500", ana, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodGet, "/api/sales?page=9223372036854775807&limit=100", ana, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodGet, "/api/sales?createdFrom=yesterday", ana, "").Code)
}

func TestSaleValidationDetails(t *testing.T) {
	f := newAPIFixture(t)
	ana := f.token(t, f.ana)

	w := f.do(http.MethodPost, "/api/sales", ana, `{"product":"Tarjeta de Credito","requestedAmount":-5,"rate":3}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[errorJSON](t, w)
	fields := map[string]bool{}
	for _, d := range body.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["requestedAmount"])
	assert.True(t, fields["franchise"])
	assert.True(t, fields["rate"])

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodPost, "/api/sales", ana, `{"product":`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/sales/abc", ana, "").Code)
}

func TestSaleStats(t *testing.T) {
	f := newAPIFixture(t)
	ana, bruno := f.token(t, f.ana), f.token(t, f.bruno)
	f.createSale(t, ana, cardBody)
	f.createSale(t, ana, loanBody)
	f.createSale(t, bruno, cardBody)

	w := f.do(http.MethodGet, "/api/sales/stats", bruno, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decode[struct {
		SalesByAdvisor []struct {
			AdvisorName string  `json:"advisorName"`
			Count       int64   `json:"count"`
			Total       float64 `json:"total"`
		} `json:"salesByAdvisor"`
		AmountByProduct []struct {
			Product string  `json:"product"`
			Total   float64 `json:"total"`
		} `json:"amountByProduct"`
		SalesByDate []struct {
			Date  string `json:"date"`
			Count int64  `json:"count"`
		} `json:"salesByDate"`
	}](t, w)
	require.Len(t, st.SalesByAdvisor, 2)
	assert.Equal(t, "Ana", st.SalesByAdvisor[0].AdvisorName)
	assert.Equal(t, int64(2), st.SalesByAdvisor[0].Count)
	require.Len(t, st.AmountByProduct, 2)
	assert.Equal(t, "Tarjeta de Credito", st.AmountByProduct[0].Product)
	assert.Equal(t, 3001.0, st.AmountByProduct[0].Total)
	require.Len(t, st.SalesByDate, 1)
	assert.Equal(t, int64(3), st.SalesByDate[0].Count)
}

func TestUsersAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	admin, ana := f.token(t, f.admin), f.token(t, f.ana)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/users", ana, "").Code)

	w := f.do(http.MethodGet, "/api/users", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	newUser := `{"name":"Carla","email":"carla@konecta.local","password":"secret123","role":"Asesor"}`
	w = f.do(http.MethodPost, "/api/users", admin, newUser)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}](t, w)
	assert.Equal(t, "Asesor", created.Role)

	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/users", admin, newUser).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/users", admin,
		`{"name":"Dario","email":"dario@konecta.local","password":"secret123","role":"Gerente"}`).Code)

	path := "/api/users/" + itoa(created.ID)
	w = f.do(http.MethodPut, path, admin, `{"name":"Carla R","email":"","password":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"carla@konecta.local"`)
	assert.Contains(t, w.Body.String(), `"name":"Carla R"`)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, admin, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, admin, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/users/0", admin, "").Code)
}

func TestMeForDeletedUser(t *testing.T) {
	f := newAPIFixture(t)
	tok := f.token(t, f.bruno)
	require.NoError(t, f.users.Delete(context.Background(), f.bruno.ID))

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/auth/me", tok, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/sales", tok, cardBody).Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"route not found","details":null}`, w.Body.String())

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/metrics", "", "").Code)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
