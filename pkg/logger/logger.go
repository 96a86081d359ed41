package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Environment string
	Level       string
	Service     string
}

// New 创建 JSON 格式的 zap logger，附带 service / environment 字段
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zc.Development = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "json"
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.InitialFields = map[string]interface{}{
		"service":     cfg.Service,
		"environment": cfg.Environment,
	}

	return zc.Build()
}
