package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/events"
	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/metrics"
	"github.com/Skotchmaster/shops_api/internal/models"
	"github.com/Skotchmaster/shops_api/internal/repo"
	"github.com/Skotchmaster/shops_api/internal/search"
	"github.com/Skotchmaster/shops_api/internal/transport"
	"github.com/Skotchmaster/shops_api/internal/validate"
)

// maxPrice is the first value that no longer fits numeric(12,2).
var maxPrice = decimal.New(1, 10)

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Search  search.Index
	Metrics metrics.Recorder
}

// CreateProduct stores a product owned by shop together with its category
// links. Repeated category ids produce a single link.
func (s *CatalogService) CreateProduct(ctx context.Context, shop *models.Shop, req transport.CreateProductRequest) (*models.Product, []models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "shop_id", shop.ID)

	if err := validate.Struct(req); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", "invalid request", "error", err)
		return nil, nil, err
	}
	if req.Price.IsNegative() {
		l.Warn("create_product_failed", "status", 400, "reason", "negative price")
		return nil, nil, fmt.Errorf("%w: price cannot be negative", apperr.ErrValidation)
	}
	if !req.Price.Equal(req.Price.Round(2)) {
		l.Warn("create_product_failed", "status", 400, "reason", "price has more than 2 decimal places")
		return nil, nil, fmt.Errorf("%w: price must have at most 2 decimal places", apperr.ErrValidation)
	}
	if !req.Price.LessThan(maxPrice) {
		l.Warn("create_product_failed", "status", 400, "reason", "price too large")
		return nil, nil, fmt.Errorf("%w: price must be less than %s", apperr.ErrValidation, maxPrice)
	}

	prod := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ShopID:      shop.ID,
	}
	categories, err := s.Repo.CreateProduct(ctx, prod, dedupe(req.Categories))
	if err != nil {
		l.Warn("create_product_failed", "status", apperr.Status(err), "error", err)
		return nil, nil, err
	}

	s.Metrics.RecordProductCreated()
	s.afterCreate(ctx, prod, categories)

	l.Info("create_product_success", "product_id", prod.ID)
	return prod, categories, nil
}

func (s *CatalogService) afterCreate(ctx context.Context, prod *models.Product, categories []models.Category) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "product_id", prod.ID)

	view := prod.Serialize(categories)
	ev := events.New(events.ProductCreated)
	ev.ShopID = prod.ShopID
	ev.ProductID = prod.ID
	ev.Payload = view
	if err := s.Events.Publish(ctx, events.TopicProducts, strconv.FormatUint(uint64(prod.ID), 10), ev); err != nil {
		l.Warn("publish_failed", "event", ev.Type, "error", err)
	}

	if err := s.Search.IndexProduct(ctx, searchDocument(prod, categories)); err != nil {
		l.Warn("index_failed", "error", err)
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, []models.Category, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, map[uint][]models.Category, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (int64, []search.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q is required", apperr.ErrValidation)
	}
	total, docs, err := s.Search.Search(ctx, query, page, size)
	if err != nil {
		if errors.Is(err, search.ErrDisabled) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: %w: %v", apperr.ErrUpstream, search.ErrUnavailable, err)
	}
	return total, docs, nil
}

func searchDocument(prod *models.Product, categories []models.Category) search.Document {
	doc := search.Document{
		ID:         prod.ID,
		Name:       prod.Name,
		Price:      prod.Price.StringFixed(2),
		ShopID:     prod.ShopID,
		Categories: make([]string, 0, len(categories)),
	}
	if prod.Description != nil {
		doc.Description = *prod.Description
	}
	for _, c := range categories {
		doc.Categories = append(doc.Categories, c.Title)
	}
	return doc
}

func dedupe(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
