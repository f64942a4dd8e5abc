// Package logger holds the process-wide zap logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProdEnvironment is the APP_ENV value that switches to JSON output.
const ProdEnvironment = "production"

var (
	// Log is the global logger instance.  It is a no-op logger until
	// InitLogger runs.
	Log = zap.NewNop()
)

// Config holds configuration for the logger.
type Config struct {
	Level       string
	Stage       string
	EnableJSON  bool
	EnableColor bool
}

// InitLogger initializes the global logger for the given stage.  The level
// comes from LOG_LEVEL and defaults to info.
func InitLogger(stage string) {
	InitLoggerWithConfig(Config{
		Level:       getEnvWithDefault("LOG_LEVEL", "info"),
		Stage:       stage,
		EnableJSON:  stage == ProdEnvironment,
		EnableColor: stage != ProdEnvironment,
	})
}

// InitLoggerWithConfig initializes the global logger with custom configuration.
func InitLoggerWithConfig(config Config) {
	l, err := New(config)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	Log = l
}

// New builds a logger without touching the global one.
func New(config Config) (*zap.Logger, error) {
	level := ParseLevel(config.Level)

	var zapConfig zap.Config
	if config.Stage == ProdEnvironment || config.EnableJSON {
		// JSON structured logging
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.MessageKey = "message"
		zapConfig.InitialFields = map[string]interface{}{
			"service": "hospitality-reservation",
			"stage":   config.Stage,
		}
	} else {
		// human-readable console logging
		zapConfig = zap.NewDevelopmentConfig()
		if config.EnableColor {
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.DisableStacktrace = config.Stage == ProdEnvironment && level > zapcore.DebugLevel

	return zapConfig.Build()
}

// ParseLevel maps a level name to a zap level.  Unknown names mean info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Info logs a message at InfoLevel.
func Info(msg string, fields ...zapcore.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, fields ...zapcore.Field) {
	Log.Warn(msg, fields...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, fields ...zapcore.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs a message at FatalLevel and exits.
func Fatal(msg string, fields ...zapcore.Field) {
	Log.Fatal(msg, fields...)
}

// With returns a child of the global logger carrying fields.
func With(fields ...zapcore.Field) *zap.Logger {
	return Log.With(fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return Log.Sync()
}
