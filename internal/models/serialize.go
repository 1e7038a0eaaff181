package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShopView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     *string   `json:"address"`
	PhoneNumber *string   `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type ProductView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ShopID      uint            `json:"shop_id"`
	Categories  []CategoryView  `json:"categories"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Serialize returns the public representation of the shop.
// The password hash and identity reference never leave the store.
func (s *Shop) Serialize() ShopView {
	return ShopView{
		ID:          s.ID,
		Name:        s.Name,
		Email:       s.Email,
		Address:     s.Address,
		PhoneNumber: s.PhoneNumber,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (c *Category) Serialize() CategoryView {
	return CategoryView{ID: c.ID, Title: c.Title}
}

// Serialize returns the public representation of the product with the
// categories resolved through the join table.
func (p *Product) Serialize(categories []Category) ProductView {
	views := make([]CategoryView, 0, len(categories))
	for i := range categories {
		views = append(views, categories[i].Serialize())
	}
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ShopID:      p.ShopID,
		Categories:  views,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
