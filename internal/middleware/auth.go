// Package middleware holds the echo middleware guarding and instrumenting the API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"crm/internal/auth"
	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/service"
)

const (
	claimsKey    = "claims"
	principalKey = "principal"
)

// Principal is the authenticated, active caller of a request.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  model.Role
}

// AccessVerifier checks access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// UserLoader returns the profile of an active user or an error.
type UserLoader func(ctx context.Context, id uuid.UUID) (*service.Profile, error)

// JWT authenticates the bearer token with the access secret and then reloads the user,
// rejecting accounts that were removed or deactivated after the token was issued.
func JWT(verifier AccessVerifier, load UserLoader) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return verifier.VerifyAccess(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
			}
			id, err := claims.UserID()
			if err != nil {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
			}

			profile, err := load(c.Request().Context(), id)
			if err != nil {
				return err
			}

			SetPrincipal(c, &Principal{ID: profile.ID, Email: profile.Email, Role: profile.Role})
			return next(c)
		})
	}
}

// SetPrincipal stores the authenticated caller on the request.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// CurrentPrincipal returns the caller set by JWT.
func CurrentPrincipal(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}

// RequireRole lets through callers whose role ranks at least min.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
			}
			if !p.Role.AtLeast(min) {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}
