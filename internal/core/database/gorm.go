package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

const slowQuery = 200 * time.Millisecond

type Opts struct {
	Driver             string // postgres | mysql
	DSN                string
	Username           string // 仅 mysql:// 形式的 DSN 使用
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string // silent / error / warn / info
}

// Open 建连并 ping；SQL 日志走 zap
func Open(ctx context.Context, o Opts, l *zap.Logger) (*gorm.DB, error) {
	if l == nil {
		l = zap.NewNop()
	}
	dial, dsn, err := dialector(o)
	if err != nil {
		return nil, err
	}
	l.Info("db connecting", zap.String("driver", o.Driver), zap.String("dsn", MaskDSN(o.Driver, dsn)))

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         newGormLogger(l, o.LogLevel),
		TranslateError: true, // 唯一键/外键冲突 → gorm.ErrDuplicatedKey / ErrForeignKeyViolated
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}), nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialector(o Opts) (gorm.Dialector, string, error) {
	switch o.Driver {
	case "postgres":
		return postgres.Open(o.DSN), o.DSN, nil
	case "mysql":
		dsn, err := mysqlDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, "", err
		}
		return mysql.Open(dsn), dsn, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
}

func newGormLogger(l *zap.Logger, level string) gormlogger.Interface {
	lvl := gormlogger.Warn
	switch level {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "info":
		lvl = gormlogger.Info
	}
	return gormlogger.New(zap.NewStdLog(l.Named("gorm")), gormlogger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true, // 仓储层把 not found 转成 (nil, nil)
		ParameterizedQueries:      true, // 不把参数值写进日志
	})
}

// mysqlDSN 接受 go-sql-driver 原生 DSN，或 mysql:// / jdbc:mysql:// URL
func mysqlDSN(raw, user, pass string) (string, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "jdbc:")
	if !strings.HasPrefix(raw, "mysql://") {
		cfg, err := mysqldrv.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		// 时间列要扫进 time.Time
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	cfg := mysqldrv.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}

	q := u.Query()
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if v := q.Get("charset"); v != "" {
		cfg.Params["charset"] = v
	}
	if tz := q.Get("loc"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("mysql dsn loc: %w", err)
		}
		cfg.Loc = loc
	}
	if v := q.Get("tls"); v != "" {
		cfg.TLSConfig = v
	}
	return cfg.FormatDSN(), nil
}

var pgPassword = regexp.MustCompile(`(?i)(password=)\S+`)

// MaskDSN 隐藏密码后用于日志
func MaskDSN(driver, dsn string) string {
	if driver == "mysql" {
		if cfg, err := mysqldrv.ParseDSN(dsn); err == nil {
			if cfg.Passwd != "" {
				cfg.Passwd = "****"
			}
			return cfg.FormatDSN()
		}
		return "****"
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Redacted()
	}
	return pgPassword.ReplaceAllString(dsn, "${1}****")
}
