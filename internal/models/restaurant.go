package models

import (
	"time"

	"gorm.io/gorm"
)

type Restaurant struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string         `json:"name" gorm:"not null"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address" gorm:"type:text"`
	LogoURL   string         `json:"logo_url"`
	IsOpen    bool           `json:"is_open" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
