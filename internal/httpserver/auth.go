package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/service"
	"github.com/Skotchmaster/shops_api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	token, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_successful")
	return c.JSON(http.StatusOK, transport.LoginResponse{Token: token})
}
