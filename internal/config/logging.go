package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format,omitempty"` // json, console
}

// ZapLevel maps Level onto a zap level. debug forces debug level.
func (c *LoggingConfig) ZapLevel(debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	switch c.Level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// BuildLogger builds the process logger.
func (c *LoggingConfig) BuildLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(c.ZapLevel(debug))
	zc.OutputPaths = []string{"stdout"}
	return zc.Build()
}
