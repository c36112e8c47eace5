package models

import (
	"time"

	"gorm.io/gorm"
)

type DiningTable struct {
	ID             string         `json:"id" gorm:"primaryKey;type:uuid"`
	RestaurantID   string         `json:"restaurant_id" gorm:"type:uuid;not null;index"`
	Number         string         `json:"number" gorm:"not null"`
	Capacity       int            `json:"capacity" gorm:"not null"`
	Shape          string         `json:"shape" gorm:"default:'square'"`     // round, rectangle, square
	Status         string         `json:"status" gorm:"default:'available'"` // available, occupied, reserved, cleaning
	CurrentOrderID *string        `json:"current_order_id" gorm:"type:uuid"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (DiningTable) TableName() string {
	return "dining_tables"
}

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

type TableShape string

const (
	ShapeRound     TableShape = "round"
	ShapeRectangle TableShape = "rectangle"
	ShapeSquare    TableShape = "square"
)
