package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDHeader = "X-Request-ID"
	localsKey       = "logger"
	requestIDKey    = "requestID"
)

// Init builds the process logger and installs it as the zap global.
func Init(cfg *config.Config) (*zap.Logger, error) {
	var logConfig zap.Config
	if cfg.App.IsProduction() {
		logConfig = zap.NewProductionConfig()
		logConfig.EncoderConfig.TimeKey = "timestamp"
		logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	log, err := logConfig.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(
		zap.String("service", "sikayet-api"),
		zap.String("environment", cfg.App.Env),
	)
	zap.ReplaceGlobals(log)

	log.Info("Logger initialized", zap.String("level", level.String()))
	return log, nil
}

// RequestID reuses or generates a request id and stores a request-scoped logger.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(requestIDKey, requestID)
		c.Locals(localsKey, zap.L().With(zap.String("request_id", requestID)))
		return c.Next()
	}
}

// Middleware logs one line per request.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		fields := []zapcore.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}

		log := FromCtx(c)
		switch {
		case err != nil:
			log.Error("HTTP request failed", append(fields, zap.Error(err))...)
		case status >= fiber.StatusInternalServerError:
			log.Error("HTTP request completed", fields...)
		default:
			log.Info("HTTP request completed", fields...)
		}
		return err
	}
}

// FromCtx returns the request logger, or the global one outside a request.
func FromCtx(c *fiber.Ctx) *zap.Logger {
	if c != nil {
		if log, ok := c.Locals(localsKey).(*zap.Logger); ok {
			return log
		}
	}
	return zap.L()
}
