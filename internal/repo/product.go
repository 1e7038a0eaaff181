package repo

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/models"
)

// CreateProduct persists the product and its category links in one
// transaction. Every category id must exist; ids are expected to be unique.
// Nothing is written when any step fails.
func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product, categoryIDs []uint) ([]models.Category, error) {
	var categories []models.Category

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shopCount int64
		if err := tx.Model(&models.Shop{}).Where("id = ?", prod.ShopID).Count(&shopCount).Error; err != nil {
			return readErr(err, "shop")
		}
		if shopCount == 0 {
			return fmt.Errorf("%w: shop %d does not exist", apperr.ErrValidation, prod.ShopID)
		}

		if len(categoryIDs) > 0 {
			if err := tx.Where("id IN ?", categoryIDs).Order("id ASC").Find(&categories).Error; err != nil {
				return readErr(err, "categories")
			}
			if missing := missingCategories(categoryIDs, categories); len(missing) > 0 {
				return fmt.Errorf("%w: unknown categories %v", apperr.ErrValidation, missing)
			}
		}

		if err := tx.Create(prod).Error; err != nil {
			return writeErr(err, "product")
		}

		if len(categoryIDs) == 0 {
			return nil
		}
		links := make([]models.ProductCategory, 0, len(categoryIDs))
		for _, id := range categoryIDs {
			links = append(links, models.ProductCategory{ProductID: prod.ID, CategoryID: id})
		}
		if err := tx.Create(&links).Error; err != nil {
			return writeErr(err, "product categories")
		}
		return nil
	})
	if err != nil {
		prod.ID = 0
		return nil, err
	}

	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func missingCategories(want []uint, found []models.Category) []uint {
	var missing []uint
	for _, id := range want {
		if !slices.ContainsFunc(found, func(c models.Category) bool { return c.ID == id }) {
			missing = append(missing, id)
		}
	}
	return missing
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, []models.Category, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).First(&prod, id).Error; err != nil {
		return nil, nil, readErr(err, fmt.Sprintf("product %d", id))
	}

	byProduct, err := r.CategoriesForProducts(ctx, []uint{prod.ID})
	if err != nil {
		return nil, nil, err
	}
	return &prod, byProduct[prod.ID], nil
}

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, map[uint][]models.Category, error) {
	products := make([]models.Product, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, nil, readErr(err, "products")
	}

	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	byProduct, err := r.CategoriesForProducts(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return products, byProduct, nil
}
