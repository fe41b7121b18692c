package logger

import (
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"go-sales-tracker/internal/core/config"
)

type Options struct {
	Level   string // debug / info / warn / error，非法值按 info
	JSON    bool   // 控制台输出格式；文件始终是 JSON
	Service string
	File    config.FileRotate
}

func FromConfig(c config.Log, service string) (*zap.Logger, func()) {
	return New(Options{Level: c.Level, JSON: c.JSON, Service: service, File: c.File})
}

func New(o Options) (*zap.Logger, func()) {
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder(o.JSON), zapcore.Lock(os.Stdout), lvl)}

	var rotator *lumberjack.Logger
	if o.File.Enable {
		rotator = &lumberjack.Logger{
			Filename:   o.File.Filename,
			MaxSize:    max(1, o.File.MaxSizeMB),
			MaxBackups: max(0, o.File.MaxBackups),
			MaxAge:     max(0, o.File.MaxAgeDays),
			Compress:   o.File.Compress,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !o.JSON {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...)
	if o.Service != "" {
		l = l.With(zap.String("service", o.Service))
	}

	return l, func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder(json bool) zapcore.Encoder {
	if json {
		return jsonEncoder()
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// ToStdLogger 给 http.Server.ErrorLog 之类只认 *log.Logger 的地方用
func ToStdLogger(l *zap.Logger, level zapcore.Level) (*log.Logger, error) {
	return zap.NewStdLogAt(l, level)
}

func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
