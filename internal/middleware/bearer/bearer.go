// Package bearer authenticates shop owners from the Authorization header.
package bearer

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/models"
)

const shopKey = "shop"

type Authenticator interface {
	Authenticate(ctx context.Context, idToken string) (*models.Shop, error)
}

// RequireShop rejects requests without a verifiable "<scheme> <token>"
// Authorization header. The scheme itself is not checked.
func RequireShop(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "bearer")

			_, token, ok := SplitAuthorization(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				l.Warn("auth_failed", "status", 401, "reason", "malformed authorization header")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			shop, err := a.Authenticate(ctx, token)
			if err != nil {
				l.Warn("auth_failed", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set(shopKey, shop)
			return next(c)
		}
	}
}

func ShopFromContext(c echo.Context) (*models.Shop, bool) {
	shop, ok := c.Get(shopKey).(*models.Shop)
	return shop, ok && shop != nil
}

// SplitAuthorization splits a header of the form "<scheme> <token>".
func SplitAuthorization(h string) (scheme, token string, ok bool) {
	parts := strings.Fields(h)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
