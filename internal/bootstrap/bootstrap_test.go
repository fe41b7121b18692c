package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-sales-tracker/internal/core/config"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/repo/repotest"
	"go-sales-tracker/pkg/utils"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	users := repotest.NewUsers()
	seed := config.Seed{AdminName: "Administrador", AdminEmail: " Admin@Konecta.Local ", AdminPassword: "Konecta#2024"}
	ctx := context.Background()

	created, err := SeedAdmin(ctx, users, seed, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, created)

	u, err := users.FindByEmail(ctx, "admin@konecta.local")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.True(t, utils.CheckPassword("Konecta#2024", u.PasswordHash))

	created, err = SeedAdmin(ctx, users, seed, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, created)
}
