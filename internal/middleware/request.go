package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
)

// RequestInfo stores the client IP (Cloudflare and proxy aware) and user
// agent in the request context for audit rows.
func RequestInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		meta := domain.RequestMeta{
			IPAddress: GetIPAddress(c),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}
		c.SetUserContext(domain.WithRequestMeta(c.UserContext(), meta))
		return c.Next()
	}
}

func GetIPAddress(c *fiber.Ctx) string {
	if ip := c.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.IP()
}

// RequestLogger writes one access line per request. /health is skipped.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", GetIPAddress(c)),
		}
		if actor, ok := GetActor(c); ok {
			fields = append(fields, zap.String("user_id", actor.UserID.String()), zap.String("tenant_id", actor.TenantID.String()))
		}

		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			logger.Warn("request", fields...)
		} else {
			logger.Info("request", fields...)
		}
		return nil
	}
}
