package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderItem struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID   string         `json:"order_id" gorm:"type:uuid;not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	UnitPrice float64        `json:"unit_price" gorm:"not null"`
	Quantity  int            `json:"quantity" gorm:"not null"`
	Note      string         `json:"note" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// LineTotal is the item's contribution to the order subtotal.
func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
