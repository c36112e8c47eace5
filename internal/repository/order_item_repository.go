package repository

import (
	"pos_manager/internal/models"

	"gorm.io/gorm"
)

type OrderItemRepository interface {
	Create(item *models.OrderItem) error
	GetByOrder(orderID string) ([]models.OrderItem, error)
	Update(item *models.OrderItem) error
	Delete(id string) error
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) Create(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

func (r *orderItemRepository) GetByOrder(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Order("created_at").Find(&items).Error
	return items, err
}

func (r *orderItemRepository) Update(item *models.OrderItem) error {
	return r.db.Save(item).Error
}

func (r *orderItemRepository) Delete(id string) error {
	return r.db.Delete(&models.OrderItem{}, "id = ?", id).Error
}
