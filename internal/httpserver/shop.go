package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/models"
	"github.com/Skotchmaster/shops_api/internal/service"
	"github.com/Skotchmaster/shops_api/internal/transport"
)

type ShopHTTP struct {
	Svc *service.ShopService
}

func (h *ShopHTTP) CreateShop(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.create_shop")

	var req transport.CreateShopRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_shop_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	shop, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "create_shop_failed", err)
	}

	l.Info("create_shop_success", "shop_id", shop.ID)
	return c.JSON(http.StatusCreated, transport.CreateShopResponse{
		Message: "Congratulation, Shop created",
		Shop:    shop.Serialize(),
	})
}

func (h *ShopHTTP) GetShop(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.get_shop")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_shop_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	shop, err := h.Svc.GetShop(ctx, id)
	if err != nil {
		return fail(l, "get_shop_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ShopResponse{Shop: shop.Serialize()})
}

func (h *ShopHTTP) GetShops(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.get_shops")

	shops, err := h.Svc.ListShops(ctx)
	if err != nil {
		return fail(l, "get_shops_failed", err)
	}

	views := make([]models.ShopView, 0, len(shops))
	for i := range shops {
		views = append(views, shops[i].Serialize())
	}
	return c.JSON(http.StatusOK, transport.ShopsResponse{Shops: views})
}
