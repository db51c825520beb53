package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/searchindex"
)

// Field limits shared by validation tags and the schema.
const (
	ProductNameMax        = 100
	ProductDescriptionMax = 500
	MaxRating             = 5.0
)

// Product is a catalog item. Search is derived from Name and Description by
// searchindex.Derive and never set on its own.
type Product struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Stock       int                `json:"stock"`
	IsActive    bool               `json:"is_active"`
	CategoryID  int64              `json:"category_id"`
	SellerID    int64              `json:"seller_id"`
	Rating      float64            `json:"rating"`
	ImageURL    *string            `json:"image_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Search      searchindex.Vector `json:"-"`
}

// Reindex recomputes Search from the current text fields.
func (p *Product) Reindex() error {
	v, err := searchindex.Derive(p.Name, p.Description)
	if err != nil {
		return err
	}
	p.Search = v
	return nil
}

// CreateProductInput is the body of a product create request.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	ImageURL    *string         `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductInput is the body of a product update request. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
}

// TouchesText reports whether the update changes a searchable field.
func (in UpdateProductInput) TouchesText() bool {
	return in.Name != nil || in.Description != nil
}
