package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/search"
	"github.com/Skotchmaster/shops_api/internal/transport"
)

// fail logs err under event and turns it into the HTTP error the client sees.
// Persistence and upstream details stay in the log.
func fail(l *slog.Logger, event string, err error) error {
	code := statusOf(err)
	if code >= 500 {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return echo.NewHTTPError(code, publicMessage(err, code))
}

func statusOf(err error) int {
	if errors.Is(err, search.ErrDisabled) {
		return http.StatusServiceUnavailable
	}
	return apperr.Status(err)
}

func publicMessage(err error, code int) string {
	switch code {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway:
		if errors.Is(err, search.ErrUnavailable) {
			return search.ErrUnavailable.Error()
		}
		return "identity provider unavailable"
	case http.StatusServiceUnavailable:
		return search.ErrDisabled.Error()
	case http.StatusNotFound:
		return detail(err, apperr.ErrNotFound) + " not found"
	case http.StatusBadRequest:
		return detail(err, apperr.ErrValidation)
	case http.StatusConflict:
		return detail(err, apperr.ErrConflict)
	case http.StatusUnauthorized:
		return detail(err, apperr.ErrUnauthorized)
	}
	return http.StatusText(code)
}

// detail returns what follows the sentinel in a "%w: detail" chain.
func detail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
	} else if code = statusOf(err); code != http.StatusInternalServerError {
		msg = publicMessage(err, code)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, transport.ErrorResponse{Error: msg})
}
