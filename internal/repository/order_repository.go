package repository

import (
	"time"

	"pos_manager/internal/models"

	"gorm.io/gorm"
)

// OrderFilter narrows ListByRestaurant. Zero values mean "no filter".
type OrderFilter struct {
	Status    string
	OrderType string
	Since     time.Time
}

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByRestaurant(restaurantID string, filter OrderFilter) ([]models.Order, error)
	Update(order *models.Order) error
	UpdateFields(id string, fields map[string]interface{}) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByRestaurant(restaurantID string, filter OrderFilter) ([]models.Order, error) {
	query := r.db.Preload("Items").Where("restaurant_id = ?", restaurantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		query = query.Where("order_type = ?", filter.OrderType)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields writes only the given columns, leaving line items alone.
func (r *orderRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}
