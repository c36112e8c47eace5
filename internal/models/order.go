package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	RestaurantID  string         `json:"restaurant_id" gorm:"type:uuid;not null;index"`
	OrderType     string         `json:"order_type" gorm:"default:'dine_in'"` // dine_in, pickup, delivery, table
	TableID       *string        `json:"table_id" gorm:"type:uuid"`
	TableNumber   string         `json:"table_number"` // snapshot at open time, survives table renumbering
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	Items         []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal      float64        `json:"subtotal" gorm:"not null"`
	Discount      float64        `json:"discount"`
	Total         float64        `json:"total" gorm:"not null"`
	Notes         string         `json:"notes" gorm:"type:text"`
	Status        string         `json:"status" gorm:"default:'pending'"` // pending, preparing, ready, completed, cancelled
	KitchenStatus string         `json:"kitchen_status" gorm:"default:'pending'"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus string         `json:"payment_status" gorm:"default:'unpaid'"` // unpaid, paid
	GuestCount    int            `json:"guest_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ServedAt      *time.Time     `json:"served_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type OrderType string

const (
	TypeDineIn   OrderType = "dine_in"
	TypePickup   OrderType = "pickup"
	TypeDelivery OrderType = "delivery"
	TypeTable    OrderType = "table"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Recalculate recomputes subtotal and total from the current line items and
// discount. Total is never stored independently of its inputs.
func (o *Order) Recalculate() {
	subtotal := 0.0
	for _, item := range o.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	o.Subtotal = subtotal

	total := subtotal - o.Discount
	if total < 0 {
		total = 0
	}
	o.Total = total
}

// IsTerminal reports whether the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return OrderStatus(o.Status) == OrderCompleted || OrderStatus(o.Status) == OrderCancelled
}
