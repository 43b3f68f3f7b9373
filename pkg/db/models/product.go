package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/multimart/multimart-backend/pkg/enums"
	"github.com/multimart/multimart-backend/pkg/types"
)

// Product is one catalog record. Option lists live in JSON columns so the
// model works on postgres and the sqlite test driver alike.
type Product struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	Title       string `gorm:"column:title;not null"`
	Description string `gorm:"column:description"`

	PriceCents          int64  `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64 `gorm:"column:compare_at_price_cents"`

	Vertical    enums.Vertical `gorm:"column:vertical;not null"`
	Subcategory string         `gorm:"column:subcategory"`

	Colors    types.StringArray `gorm:"column:colors;type:text"`
	Sizes     types.StringArray `gorm:"column:sizes;type:text"`
	Materials types.StringArray `gorm:"column:materials;type:text"`
	RAMs      types.StringArray `gorm:"column:rams;type:text"`
	Images    types.StringArray `gorm:"column:images;type:text"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// MainImage returns the first image or empty.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Price returns the display price in currency units.
func (p Product) Price() float64 {
	return float64(p.PriceCents) / 100
}

// CompareAtPrice returns the strikethrough price, falling back to the price.
func (p Product) CompareAtPrice() float64 {
	if p.CompareAtPriceCents == nil {
		return p.Price()
	}
	return float64(*p.CompareAtPriceCents) / 100
}
