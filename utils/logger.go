package utils

import (
	"log"
	"strings"

	"clinicfront/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger, built on first use.
var Logger *zap.Logger

// NewLogger builds the logger for env: JSON at info in production, coloured
// console at debug otherwise. A valid level overrides either default. Every
// entry carries the service name so shared log sinks can tell
// clinicfront and clinicctl apart.
func NewLogger(env, level, service string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	if service != "" {
		cfg.InitialFields = map[string]any{"service": service}
	}
	return cfg.Build()
}

// InitializeLogger sets up the global logger from AppConfig. LOG_LEVEL only
// applies in production, and an unknown value falls back to the default.
func InitializeLogger() {
	env := config.GetEnv()
	level := ""
	if config.IsProduction() {
		level = config.AppConfig.LogLevel
	}
	logger, err := NewLogger(env, level, "clinicfront")
	if err != nil {
		log.Printf("ignoring LOG_LEVEL %q: %v", level, err)
		logger, err = NewLogger(env, "", "clinicfront")
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	Logger = logger
	zap.ReplaceGlobals(Logger)
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
