package repository

import (
	"pos_manager/internal/models"

	"gorm.io/gorm"
)

type RestaurantRepository interface {
	Create(restaurant *models.Restaurant) error
	GetByID(id string) (*models.Restaurant, error)
	GetAll() ([]models.Restaurant, error)
	Update(restaurant *models.Restaurant) error
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(restaurant *models.Restaurant) error {
	return r.db.Create(restaurant).Error
}

func (r *restaurantRepository) GetByID(id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.First(&restaurant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) GetAll() ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.Find(&restaurants).Error
	return restaurants, err
}

func (r *restaurantRepository) Update(restaurant *models.Restaurant) error {
	return r.db.Save(restaurant).Error
}
