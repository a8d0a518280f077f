package middleware

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "crm/internal/errors"
)

// ClientIP picks the address c.RealIP reports. With no trusted proxies the TCP peer is
// the client and forwarding headers are ignored. Otherwise X-Forwarded-For is walked
// only through hops inside the trusted networks.
func ClientIP(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// Counter increments a windowed counter. A zero count means the store was unavailable.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// LoginThrottle allows limit requests per client IP within window. The IP comes from
// the Echo instance's IPExtractor, which must be set (see ClientIP). The count lives in
// the shared store so every instance sees the same budget; when the store is down the
// request is let through. A limit of zero disables the throttle.
func LoginThrottle(counter Counter, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limit <= 0 || counter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := "ratelimit:login:" + c.RealIP()
			n, err := counter.Incr(c.Request().Context(), key, window)
			if err == nil && n > int64(limit) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				return apperrors.ErrTooManyRequests
			}
			return next(c)
		}
	}
}
