package models

import (
	"time"
)

type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"index" json:"order_id"`
	ProductID   uint      `gorm:"not null" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   Money     `gorm:"not null" json:"unit_price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Subtotal dihitung ulang dari harga dan jumlah, tidak pernah disimpan
func (i OrderItem) Subtotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}

// OrderItemRequest is the payload for adding or editing an order row.
type OrderItemRequest struct {
	ProductID uint   `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}
