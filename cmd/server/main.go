package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkov/gardenshop-backend/config"
	"github.com/avolkov/gardenshop-backend/internal/app/controller"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	"github.com/avolkov/gardenshop-backend/internal/db"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
	"github.com/avolkov/gardenshop-backend/internal/router"
	"github.com/avolkov/gardenshop-backend/internal/storage"
	"github.com/avolkov/gardenshop-backend/internal/websocket"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"github.com/avolkov/gardenshop-backend/pkg/redis"
	"github.com/avolkov/gardenshop-backend/pkg/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting GardenShop Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis for the token blacklist. The server runs without it, logouts
	// then rely on token expiry alone.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token blacklist disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	// Telegram notifier for new orders and status changes.
	var notifier service.Notifier
	tgClient, err := telegram.NewClient(telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		BaseURL:  cfg.Telegram.BaseURL,
		Timeout:  cfg.Telegram.Timeout,
	})
	if err != nil {
		logger.Warn("Telegram notifications disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		notifier = tgClient
	}

	// S3 for product images.
	s3Storage := storage.NewS3Storage(&cfg.S3)

	// WebSocket hub for customer chat.
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	chatRepo := repository.NewChatRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		customerRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(db.GetDB(), orderRepo, cartRepo, notifier)
	importService := service.NewImportService(productRepo, categoryRepo, s3Storage, cfg.Import.ImageTimeout)
	chatService := service.NewChatService(chatRepo, hub)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	categoryController := controller.NewCategoryController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	importController := controller.NewImportController(importService, cfg.Import.MaxFileSize)
	chatController := controller.NewChatController(chatService, hub)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		categoryController,
		cartController,
		orderController,
		importController,
		chatController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
