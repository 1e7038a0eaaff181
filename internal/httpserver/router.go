package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/shops_api/internal/middleware/bearer"
)

type Deps struct {
	ShopHandler    *ShopHTTP
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP

	Ready          func(ctx context.Context) error
	Metrics        http.Handler
	LoginRateLimit float64

	// Exchange serves the local identity provider's token endpoint; nil
	// when a hosted provider is configured.
	Exchange echo.HandlerFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}
	if d.Exchange != nil {
		e.POST("/identity/v1/exchange", d.Exchange)
	}

	api := e.Group("/api/v1")

	api.POST("/shops", d.ShopHandler.CreateShop)
	api.GET("/shops", d.ShopHandler.GetShops)
	api.GET("/shops/:id", d.ShopHandler.GetShop)

	loginMW := []echo.MiddlewareFunc{}
	if d.LoginRateLimit > 0 {
		store := echomw.NewRateLimiterMemoryStore(rate.Limit(d.LoginRateLimit))
		loginMW = append(loginMW, echomw.RateLimiter(store))
	}
	api.POST("/login", d.AuthHandler.Login, loginMW...)

	api.GET("/categories", d.CatalogHandler.GetCategories)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, bearer.RequireShop(d.AuthHandler.Svc))
}
