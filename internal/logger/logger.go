package logger

import (
	"os"

	"go.uber.org/zap"
)

var globalLogger *zap.Logger

// Init initializes the global logger
func Init(logLevel *string) error {
	var err error

	// Create config based on ENVIRONMENT for formatting
	env := os.Getenv("ENVIRONMENT")
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	var appliedLogLevel string
	if logLevel != nil {
		appliedLogLevel = *logLevel
	} else {
		appliedLogLevel = "info"
	}

	switch appliedLogLevel {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	globalLogger, err = config.Build()
	if err != nil {
		return err
	}

	return nil
}

// Get returns the global logger
func Get() *zap.Logger {
	if globalLogger == nil {
		// Fallback to development logger if not initialized
		globalLogger, _ = zap.NewDevelopment()
	}
	return globalLogger
}

// Sync flushes the logger
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Shutdown properly closes the logger
func Shutdown() error {
	return Sync()
}

// WithContext returns a logger with additional context fields
func WithContext(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// WithVillageContext returns a logger with village-related context
func WithVillageContext(villageID, ownerID string) *zap.Logger {
	fields := make([]zap.Field, 0, 2)

	if villageID != "" {
		fields = append(fields, zap.String("village_id", villageID))
	}

	if ownerID != "" {
		fields = append(fields, zap.String("owner_id", ownerID))
	}

	return Get().With(fields...)
}

// WithRequestContext returns a logger with request-related context
func WithRequestContext(requestID, principalID string) *zap.Logger {
	fields := make([]zap.Field, 0, 2)

	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if principalID != "" {
		fields = append(fields, zap.String("principal_id", principalID))
	}

	return Get().With(fields...)
}
