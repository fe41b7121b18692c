package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sales-tracker/internal/domain"
)

func newJWTer(ttl time.Duration) *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "sales-api", TTL: ttl}
}

func TestJWTer_IssueAndParse(t *testing.T) {
	j := newJWTer(time.Hour)
	tok, err := j.Issue(&domain.User{ID: 42, Email: "ana@bank.test", Role: domain.RoleAdvisor})
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana@bank.test", c.Email)
	assert.Equal(t, domain.RoleAdvisor, c.Role)

	actor, err := c.Actor()
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: 42, Email: "ana@bank.test", Role: domain.RoleAdvisor}, actor)
}

func TestJWTer_RejectsExpired(t *testing.T) {
	j := newJWTer(-time.Minute)
	tok, err := j.Issue(&domain.User{ID: 1, Email: "a@b.c", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.Error(t, err)
}

func TestJWTer_RejectsForeignSecretAndIssuer(t *testing.T) {
	tok, err := newJWTer(time.Hour).Issue(&domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "sales-api", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)

	otherIss := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Hour}
	_, err = otherIss.Parse(tok)
	assert.Error(t, err)

	_, err = newJWTer(time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
