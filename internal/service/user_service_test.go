package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/repo/repotest"
	"go-sales-tracker/pkg/utils"
)

func TestUserService_Create(t *testing.T) {
	svc := NewUserService(repotest.NewUsers())
	ctx := context.Background()

	u, err := svc.Create(ctx, domain.NewUser{Name: "Ana", Email: "ana@konecta.local", Password: "secret123", Role: "Asesor"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, domain.RoleAdvisor, u.Role)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, utils.CheckPassword("secret123", u.PasswordHash))

	_, err = svc.Create(ctx, domain.NewUser{Name: "Otra", Email: "ana@konecta.local", Password: "secret123", Role: "Asesor"})
	requireStatus(t, err, http.StatusConflict)

	_, err = svc.Create(ctx, domain.NewUser{Name: "X", Email: "x@konecta.local", Password: "secret123", Role: "Gerente"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUserService_EmailComparedAsProvided(t *testing.T) {
	svc := NewUserService(repotest.NewUsers())
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.NewUser{Name: "Ana", Email: "ana@konecta.local", Password: "secret123", Role: "Asesor"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.NewUser{Name: "Ana", Email: "ANA@konecta.local", Password: "secret123", Role: "Asesor"})
	assert.NoError(t, err)
}

func TestUserService_UpdatePartial(t *testing.T) {
	users := repotest.NewUsers()
	svc := NewUserService(users)
	ctx := context.Background()
	ana := seedUser(t, users, "Ana", "ana@konecta.local", domain.RoleAdvisor)
	seedUser(t, users, "Bruno", "bruno@konecta.local", domain.RoleAdvisor)

	name := "Ana María"
	u, err := svc.Update(ctx, ana.ID, domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", u.Name)
	assert.Equal(t, "ana@konecta.local", u.Email)
	assert.True(t, utils.CheckPassword("secret123", u.PasswordHash))

	pw, role := "another99", "Administrador"
	u, err = svc.Update(ctx, ana.ID, domain.UserPatch{Password: &pw, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.True(t, utils.CheckPassword("another99", u.PasswordHash))

	taken := "bruno@konecta.local"
	_, err = svc.Update(ctx, ana.ID, domain.UserPatch{Email: &taken})
	requireStatus(t, err, http.StatusConflict)

	same := "ana@konecta.local"
	_, err = svc.Update(ctx, ana.ID, domain.UserPatch{Email: &same})
	assert.NoError(t, err)

	bad := "Root"
	_, err = svc.Update(ctx, ana.ID, domain.UserPatch{Role: &bad})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUserService_GetAndDelete(t *testing.T) {
	users := repotest.NewUsers()
	svc := NewUserService(users)
	ctx := context.Background()
	ana := seedUser(t, users, "Ana", "ana@konecta.local", domain.RoleAdvisor)

	_, err := svc.Get(ctx, 42)
	requireStatus(t, err, http.StatusNotFound)

	require.NoError(t, svc.Delete(ctx, ana.ID))
	_, err = svc.Get(ctx, ana.ID)
	requireStatus(t, err, http.StatusNotFound)
	requireStatus(t, svc.Delete(ctx, ana.ID), http.StatusNotFound)
}

func TestUserService_ListNewestFirst(t *testing.T) {
	users := repotest.NewUsers()
	svc := NewUserService(users)
	seedUser(t, users, "Ana", "ana@konecta.local", domain.RoleAdvisor)
	seedUser(t, users, "Bruno", "bruno@konecta.local", domain.RoleAdvisor)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bruno", list[0].Name)
}
