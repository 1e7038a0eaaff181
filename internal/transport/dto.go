package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shops_api/internal/models"
)

type CreateShopRequest struct {
	Name        string  `json:"name"         validate:"required,notblank,max=80"`
	Email       string  `json:"email"        validate:"required,email,max=120"`
	Address     *string `json:"address"      validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,mobile"`
	Password    string  `json:"password"     validate:"required,min=6,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,notblank,max=80"`
	Description *string         `json:"description" validate:"omitempty,max=80"`
	Price       decimal.Decimal `json:"price"`
	Categories  []uint          `json:"categories"  validate:"dive,gt=0"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateShopResponse struct {
	Message string          `json:"message"`
	Shop    models.ShopView `json:"shop"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateProductResponse struct {
	Message string             `json:"message"`
	Product models.ProductView `json:"product"`
}

type ShopResponse struct {
	Shop models.ShopView `json:"shop"`
}

type ShopsResponse struct {
	Shops []models.ShopView `json:"shops"`
}

type ProductResponse struct {
	Product models.ProductView `json:"product"`
}

type ProductsResponse struct {
	Products []models.ProductView `json:"products"`
}

type CategoriesResponse struct {
	Categories []models.CategoryView `json:"categories"`
}

type SearchResponse struct {
	Total    int64              `json:"total"`
	Products []ProductSearchHit `json:"products"`
}

type ProductSearchHit struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	ShopID      uint     `json:"shop_id"`
	Categories  []string `json:"categories"`
}
