package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/routes"
	"github.com/lumme/lumme-api/services"
)

func main() {
	log.Println("Starting Lumme API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if err := initServices(cfg); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	router := routes.SetupRouter(cfg)

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initServices sets up the process-wide order hub and, when a bucket is
// configured, product image storage
func initServices(cfg *config.Config) error {
	services.InitOrderHub()

	// Product images are optional; uploads are refused until a bucket is configured
	if !cfg.S3Enabled() {
		services.SetImageStore(nil)
		log.Println("AWS_S3_BUCKET not set, product image uploads are disabled")
		return nil
	}

	bucket, err := services.NewS3Store(context.Background(), cfg)
	if err != nil {
		return err
	}
	services.SetImageStore(services.NewProductImageStore(bucket))
	log.Printf("Product images stored in S3 bucket %s", bucket.Bucket())
	return nil
}
