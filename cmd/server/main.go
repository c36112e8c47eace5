package main

import (
	"context"
	"log"
	"time"

	"pos_manager/internal/cache"
	"pos_manager/internal/config"
	"pos_manager/internal/connectivity"
	"pos_manager/internal/database"
	"pos_manager/internal/gateway"
	"pos_manager/internal/handlers"
	"pos_manager/internal/offline"
	"pos_manager/internal/redis"
	"pos_manager/internal/repository"
	"pos_manager/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Remote data gateway and sync layer
	gw := gateway.NewGormGateway(db, redisClient)
	monitor := connectivity.NewMonitor(!cfg.StartOffline)
	readCache := cache.NewReadCache(cache.NewRedisStore(redisClient), time.Duration(cfg.CacheTTL)*time.Second)
	queue := offline.NewQueue(offline.NewRedisStore(redisClient), gw, cfg.QueueMaxRetries)

	// Flush the offline queue whenever connectivity comes back
	monitor.OnTransition(func(online bool) {
		if !online {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			result, err := queue.Flush(ctx)
			if err != nil {
				log.Printf("Queue flush failed: %v", err)
				return
			}
			log.Printf("Queue flush: applied=%d dead_lettered=%d remaining=%d", result.Applied, result.DeadLettered, result.Remaining)
		}()
	})

	if cfg.ProbeInterval > 0 {
		go monitor.Watch(context.Background(), gw, time.Duration(cfg.ProbeInterval)*time.Second)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	tableRepo := repository.NewTableRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	itemRepo := repository.NewOrderItemRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, redisClient, time.Duration(cfg.SessionTimeout)*time.Second)
	orderService := services.NewOrderService(orderRepo, itemRepo, tableRepo, restaurantRepo, readCache, queue, monitor)
	storageService := services.NewStorageService(cfg.UploadDir, cfg.PublicBaseURL)

	// Repair tables left occupied by an interrupted open-table sequence
	if repaired, err := orderService.ReconcileTables(); err != nil {
		log.Printf("Warning: table reconciliation failed: %v", err)
	} else if repaired > 0 {
		log.Printf("Reconciled %d stale table(s)", repaired)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	posHandler := handlers.NewPOSHandler(orderService)
	syncHandler := handlers.NewSyncHandler(queue, monitor, gw)
	storageHandler := handlers.NewStorageHandler(storageService)

	// Setup routes
	router := gin.Default()
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")
	{
		api.POST("/auth/signup", authHandler.SignUp)
		api.POST("/auth/signin", authHandler.SignIn)
		api.POST("/auth/signout", authHandler.SignOut)
		api.GET("/auth/me", authHandler.Me)

		api.GET("/pos/tables", posHandler.ListTables)
		api.POST("/pos/tables/:id/open", posHandler.OpenTable)
		api.GET("/pos/orders", posHandler.ListOrders)
		api.POST("/pos/orders", posHandler.CreateOrder)
		api.GET("/pos/orders/:id", posHandler.GetOrder)
		api.POST("/pos/orders/:id/items", posHandler.AddItem)
		api.PUT("/pos/orders/:id/items/:itemId/quantity", posHandler.SetItemQuantity)
		api.DELETE("/pos/orders/:id/items/:itemId", posHandler.RemoveItem)
		api.PUT("/pos/orders/:id/discount", posHandler.ApplyDiscount)
		api.POST("/pos/orders/:id/transition", posHandler.Transition)
		api.POST("/pos/orders/:id/split", posHandler.PreviewSplit)
		api.POST("/pos/orders/:id/split/execute", posHandler.ExecuteSplit)

		api.GET("/sync/status", syncHandler.Status)
		api.POST("/sync/flush", syncHandler.Flush)
		api.POST("/sync/connectivity", syncHandler.SetConnectivity)
		api.GET("/realtime/:collection", syncHandler.Realtime)

		api.POST("/storage/:bucket", storageHandler.Upload)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
