package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"crm/internal/model"
	"crm/internal/repository"
)

// Audit records successful POST, PATCH and DELETE requests made by an authenticated
// caller. The entity is the path segment after the API version (/api/v1/<entity>/...)
// and the entity id is the :id parameter, falling back to the caller. Storage failures
// are logged and never fail the request.
func Audit(repo repository.AuditLogRepository, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPatch, http.MethodDelete:
			default:
				return err
			}
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			p, ok := CurrentPrincipal(c)
			if !ok {
				return err
			}

			entityID := c.Param("id")
			if entityID == "" {
				entityID = p.ID.String()
			}
			entry := &model.AuditLog{
				UserID:    p.ID,
				Action:    req.Method,
				Entity:    entityFromPath(req.URL.Path),
				EntityID:  entityID,
				IPAddress: truncate(c.RealIP(), model.AuditIPMaxLen),
				UserAgent: truncate(req.UserAgent(), model.AuditUserAgentMaxLen),
			}
			if cerr := repo.Create(req.Context(), entry); cerr != nil {
				logger.ErrorContext(req.Context(), "failed to create audit log",
					"error", cerr, "method", req.Method, "path", req.URL.Path)
			}
			return err
		}
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func entityFromPath(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) > 2 {
		return parts[2]
	}
	return "unknown"
}
