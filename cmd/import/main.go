package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/avolkov/gardenshop-backend/config"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	"github.com/avolkov/gardenshop-backend/internal/db"
	"github.com/avolkov/gardenshop-backend/internal/storage"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
)

// Bulk product import from an xlsx file, same pipeline as the admin
// endpoint:
//
//	go run ./cmd/import -file products.xlsx
func main() {
	filePath := flag.String("file", "", "path to the xlsx file")
	skipImages := flag.Bool("skip-images", false, "do not download product images")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file <products.xlsx> [-skip-images]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	var imageStorage service.ImageStorage
	if !*skipImages {
		imageStorage = storage.NewS3Storage(&cfg.S3)
	}

	productRepo := repository.NewProductRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	importService := service.NewImportService(productRepo, categoryRepo, imageStorage, cfg.Import.ImageTimeout)

	f, err := os.Open(*filePath)
	if err != nil {
		logger.Fatal("Failed to open import file", err)
	}
	defer f.Close()

	result, err := importService.ImportProducts(context.Background(), f)
	if err != nil {
		logger.Fatal("Import failed", err)
	}

	fmt.Printf("Создано товаров: %d\n", result.Created)
	if len(result.Errors) > 0 {
		fmt.Printf("Ошибок: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
	}
}
