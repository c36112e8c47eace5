package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string         `json:"id" gorm:"primaryKey;type:uuid"`
	Name         string         `json:"name" gorm:"not null"`
	Email        string         `json:"email" gorm:"unique;not null"`
	Phone        string         `json:"phone"`
	Role         string         `json:"role" gorm:"default:'customer'"` // customer, merchant, rider, staff
	RestaurantID *string        `json:"restaurant_id" gorm:"type:uuid"` // merchants and staff only
	PasswordHash string         `json:"-" gorm:"not null"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleMerchant UserRole = "merchant"
	RoleRider    UserRole = "rider"
	RoleStaff    UserRole = "staff"
)
