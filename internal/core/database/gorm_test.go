package database

import (
	"context"
	"errors"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN_FromURL(t *testing.T) {
	got, err := mysqlDSN("jdbc:mysql://db.local:3306/sales?loc=UTC", "app", "pw")
	require.NoError(t, err)
	assert.Contains(t, got, "app:pw@tcp(db.local:3306)/sales?")
	assert.Contains(t, got, "parseTime=true")
	assert.Contains(t, got, "charset=utf8mb4")
}

func TestMySQLDSN_NativeDSNForcesParseTime(t *testing.T) {
	got, err := mysqlDSN("app:pw@tcp(127.0.0.1:3306)/sales?charset=utf8mb4", "other", "x")
	require.NoError(t, err)
	assert.Contains(t, got, "app:pw@tcp(127.0.0.1:3306)/sales?")
	assert.Contains(t, got, "parseTime=true")
	assert.Contains(t, got, "charset=utf8mb4")
	assert.NotContains(t, got, "other")

	cfg, err := mysqldrv.ParseDSN(got)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
}

func TestMySQLDSN_Invalid(t *testing.T) {
	_, err := mysqlDSN("not a dsn", "", "")
	assert.Error(t, err)
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "host=db user=app password=**** dbname=sales",
		MaskDSN("postgres", "host=db user=app password=s3cret dbname=sales"))
	assert.NotContains(t, MaskDSN("postgres", "postgres://app:s3cret@db:5432/sales"), "s3cret")
	assert.NotContains(t, MaskDSN("mysql", "app:s3cret@tcp(db:3306)/sales"), "s3cret")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Opts{Driver: "oracle"}, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}
