package logger

import (
	"fmt"

	"role-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if cfg.Level != "" {
			level, err := zap.ParseAtomicLevel(cfg.Level)
			if err != nil {
				return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
			}
			config.Level = level
		}
	}

	// Set format based on configuration
	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	rid := c.Locals(rayid.LocalKey)
	if str, ok := rid.(string); ok && str != "" {
		return l.With(zap.String(rayid.LocalKey, str))
	}
	return l
}

// WithAccount tags a logger with the ids of the account being synced.
// Empty ids are left out.
func WithAccount(l *zap.Logger, platformID, gameID string) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if platformID != "" {
		fields = append(fields, zap.String("platform_id", platformID))
	}
	if gameID != "" {
		fields = append(fields, zap.String("game_id", gameID))
	}
	return l.With(fields...)
}
