package repository

import (
	"pos_manager/internal/models"

	"gorm.io/gorm"
)

type TableRepository interface {
	Create(table *models.DiningTable) error
	GetByID(id string) (*models.DiningTable, error)
	GetByRestaurant(restaurantID string) ([]models.DiningTable, error)
	GetOccupied(restaurantID string) ([]models.DiningTable, error)
	Update(table *models.DiningTable) error
	SetStatus(id, status string, currentOrderID *string) error
}

type tableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Create(table *models.DiningTable) error {
	return r.db.Create(table).Error
}

func (r *tableRepository) GetByID(id string) (*models.DiningTable, error) {
	var table models.DiningTable
	err := r.db.First(&table, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) GetByRestaurant(restaurantID string) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	err := r.db.Where("restaurant_id = ?", restaurantID).Order("number").Find(&tables).Error
	return tables, err
}

func (r *tableRepository) GetOccupied(restaurantID string) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	err := r.db.Where("restaurant_id = ? AND status = ?", restaurantID, string(models.TableOccupied)).Find(&tables).Error
	return tables, err
}

func (r *tableRepository) Update(table *models.DiningTable) error {
	return r.db.Save(table).Error
}

// SetStatus updates status and current order reference in one write so the
// occupied <=> current_order_id invariant holds after every call.
func (r *tableRepository) SetStatus(id, status string, currentOrderID *string) error {
	return r.db.Model(&models.DiningTable{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":           status,
		"current_order_id": currentOrderID,
	}).Error
}
