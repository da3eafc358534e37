package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const claimsKey = "recite.claims"

// Middleware rejects requests without a valid bearer token with
// 401 {"error":"Unauthorized"} and stores the claims on the context.
func Middleware(issuer *Issuer, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := issuer.Verify(BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)))
			if err != nil {
				if logger != nil {
					logger.Debug("request rejected", "path", c.Path(), "error", err.Error())
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// FromContext returns the claims stored by Middleware.
func FromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsKey).(*Claims)
	return claims, ok
}
