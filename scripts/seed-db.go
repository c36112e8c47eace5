package main

import (
	"fmt"
	"log"

	"pos_manager/internal/config"
	"pos_manager/internal/database"
	"pos_manager/internal/models"
	"pos_manager/internal/repository"

	"github.com/google/uuid"
)

func main() {
	fmt.Println("Seeding database...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	restaurantRepo := repository.NewRestaurantRepository(db)
	tableRepo := repository.NewTableRepository(db)

	restaurant := &models.Restaurant{
		ID:      uuid.NewString(),
		Name:    "Demo Restaurant",
		Phone:   "+212600000000",
		Address: "1 Demo Street",
		IsOpen:  true,
	}
	if err := restaurantRepo.Create(restaurant); err != nil {
		log.Fatal("Failed to create demo restaurant:", err)
	}

	shapes := []models.TableShape{models.ShapeSquare, models.ShapeRound, models.ShapeRectangle}
	for i := 1; i <= 8; i++ {
		table := &models.DiningTable{
			ID:           uuid.NewString(),
			RestaurantID: restaurant.ID,
			Number:       fmt.Sprintf("%d", i),
			Capacity:     4,
			Shape:        string(shapes[i%len(shapes)]),
			Status:       string(models.TableAvailable),
		}
		if err := tableRepo.Create(table); err != nil {
			log.Fatal("Failed to create table:", err)
		}
	}

	fmt.Printf("Seeded restaurant %s with 8 tables\n", restaurant.ID)
}
