package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/multimart/multimart-backend/pkg/enums"
)

// Order is the durable record produced by a successful checkout submission.
type Order struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	// OrderID is the human-facing identifier generated at submission time.
	OrderID string `gorm:"column:order_id;uniqueIndex;not null"`

	// Gateway identifiers are nil for immediate-settlement methods.
	PaymentID      *string `gorm:"column:payment_id"`
	GatewayOrderID *string `gorm:"column:gateway_order_id"`

	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;not null"`

	Items        OrderLineItems `gorm:"column:items;serializer:json"`
	CustomerInfo CustomerInfo   `gorm:"column:customer_info;serializer:json"`

	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem snapshots one cart row at submission time.
type OrderLineItem struct {
	ProductID        string  `json:"product_id"`
	LineItemKey      string  `json:"line_item_key"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Quantity         int     `json:"quantity"`
	SelectedColor    string  `json:"selected_color,omitempty"`
	SelectedSize     string  `json:"selected_size,omitempty"`
	SelectedMaterial string  `json:"selected_material,omitempty"`
	SelectedRAM      string  `json:"selected_ram,omitempty"`
}

// OrderLineItems is the JSON-serialized item snapshot column.
type OrderLineItems []OrderLineItem

// CustomerInfo captures the shipping contact entered at checkout.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}
