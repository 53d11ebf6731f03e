package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerConfig controls how the service logger is built.
type ZapLoggerConfig struct {
	IsDevelopment     bool
	Encoding          string // json or console
	Level             string // debug, info, warn, error
	DisableCaller     bool
	DisableStacktrace bool
}

// ForEnv returns the production JSON setup, or a console debug setup for development.
func ForEnv(isDevelopment bool, level string) *ZapLoggerConfig {
	cfg := &ZapLoggerConfig{
		Encoding: "json",
		Level:    level,
	}
	if isDevelopment {
		cfg.IsDevelopment = true
		cfg.Encoding = "console"
		if level == "" || level == "info" {
			cfg.Level = "debug"
		}
	}
	return cfg
}

func NewZapLogger(cfg *ZapLoggerConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	zc.DisableCaller = cfg.DisableCaller
	zc.DisableStacktrace = cfg.DisableStacktrace
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return l, nil
}
