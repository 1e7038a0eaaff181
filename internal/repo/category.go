package repo

import (
	"context"

	"github.com/Skotchmaster/shops_api/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := r.DB.WithContext(ctx).Create(category).Error; err != nil {
		return writeErr(err, "category")
	}
	return nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, readErr(err, "categories")
	}
	return categories, nil
}

type productCategoryRow struct {
	ProductID uint
	ID        uint
	Title     string
}

// CategoriesForProducts resolves the categories of every given product with a
// single join over product_categories.
func (r *GormRepo) CategoriesForProducts(ctx context.Context, productIDs []uint) (map[uint][]models.Category, error) {
	out := make(map[uint][]models.Category, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []productCategoryRow
	err := r.DB.WithContext(ctx).
		Table("categories").
		Select("product_categories.product_id, categories.id, categories.title").
		Joins("JOIN product_categories ON product_categories.category_id = categories.id").
		Where("product_categories.product_id IN ?", productIDs).
		Order("categories.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, readErr(err, "product categories")
	}

	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], models.Category{ID: row.ID, Title: row.Title})
	}
	return out, nil
}
