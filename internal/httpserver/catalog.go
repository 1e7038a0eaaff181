package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/middleware/bearer"
	"github.com/Skotchmaster/shops_api/internal/models"
	"github.com/Skotchmaster/shops_api/internal/service"
	"github.com/Skotchmaster/shops_api/internal/transport"
	"github.com/Skotchmaster/shops_api/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	shop, ok := bearer.ShopFromContext(c)
	if !ok {
		l.Warn("create_product_failed", "status", 401, "reason", "no shop in context")
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, categories, err := h.Svc.CreateProduct(ctx, shop, req)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, transport.CreateProductResponse{
		Message: "Created product successfully",
		Product: prod.Serialize(categories),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	prod, categories, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ProductResponse{Product: prod.Serialize(categories)})
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	products, byProduct, err := h.Svc.ListProducts(ctx)
	if err != nil {
		return fail(l, "get_products_failed", err)
	}

	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, products[i].Serialize(byProduct[products[i].ID]))
	}
	return c.JSON(http.StatusOK, transport.ProductsResponse{Products: views})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	total, docs, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_failed", err)
	}

	hits := make([]transport.ProductSearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, transport.ProductSearchHit{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			ShopID:      d.ShopID,
			Categories:  d.Categories,
		})
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Products: hits})
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_categories")

	categories, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "get_categories_failed", err)
	}

	views := make([]models.CategoryView, 0, len(categories))
	for i := range categories {
		views = append(views, categories[i].Serialize())
	}
	return c.JSON(http.StatusOK, transport.CategoriesResponse{Categories: views})
}

func parseID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
