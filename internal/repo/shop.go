package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/shops_api/internal/models"
)

// CreateShop inserts the shop in its own transaction. Unique violations on
// name, email, address or phone number come back as apperr.ErrConflict.
func (r *GormRepo) CreateShop(ctx context.Context, shop *models.Shop) error {
	if err := r.DB.WithContext(ctx).Create(shop).Error; err != nil {
		return writeErr(err, "shop")
	}
	return nil
}

func (r *GormRepo) GetShop(ctx context.Context, id uint) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, readErr(err, fmt.Sprintf("shop %d", id))
	}
	return &shop, nil
}

// GetShopByEmail matches the address case-insensitively.
func (r *GormRepo) GetShopByEmail(ctx context.Context, email string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&shop).Error; err != nil {
		return nil, readErr(err, "shop")
	}
	return &shop, nil
}

func (r *GormRepo) GetShopByIdentity(ctx context.Context, uid string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB.WithContext(ctx).Where("identity_uid = ?", uid).First(&shop).Error; err != nil {
		return nil, readErr(err, "shop")
	}
	return &shop, nil
}

func (r *GormRepo) ListShops(ctx context.Context) ([]models.Shop, error) {
	shops := make([]models.Shop, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&shops).Error; err != nil {
		return nil, readErr(err, "shops")
	}
	return shops, nil
}
