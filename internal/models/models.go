package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Shop struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name         string    `gorm:"size:80;uniqueIndex;not null"    json:"name"`
	Email        string    `gorm:"size:120;uniqueIndex;not null"   json:"email"`
	Address      *string   `gorm:"size:120;uniqueIndex"            json:"address"`
	PhoneNumber  *string   `gorm:"size:120;uniqueIndex"            json:"phone_number"`
	IdentityUID  *string   `gorm:"size:255;uniqueIndex"            json:"-"`
	PasswordHash string    `gorm:"size:255;not null"               json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string          `gorm:"size:80;not null"              json:"name"`
	Description *string         `gorm:"size:80"                       json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"price"`
	ShopID      uint            `gorm:"index;not null"                json:"shop_id"`
	Shop        *Shop           `gorm:"constraint:OnDelete:RESTRICT"  json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Title string `gorm:"size:80;uniqueIndex;not null" json:"title"`
}

type ProductCategory struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                            json:"id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_product_category,priority:1" json:"product_id"`
	CategoryID uint      `gorm:"not null;uniqueIndex:idx_product_category,priority:2;index" json:"category_id"`
	Product    *Product  `gorm:"constraint:OnDelete:CASCADE"                         json:"-"`
	Category   *Category `gorm:"constraint:OnDelete:CASCADE"                         json:"-"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

// All lists the tables owned by the store in migration order.
func All() []any {
	return []any{&Shop{}, &Category{}, &Product{}, &ProductCategory{}}
}
