package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"docledger/internal/config"
	"docledger/internal/converter"
	"docledger/internal/converter/docling"
	"docledger/internal/converter/xlsx"
	"docledger/internal/handler"
	"docledger/internal/oracle"
	_ "docledger/internal/oracle/openai"
	"docledger/internal/port"
	"docledger/internal/repository/postgres"
	"docledger/internal/router"
	"docledger/internal/service"
	s3storage "docledger/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Local development convenience; no .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	docRepo := postgres.NewDocumentRepo(db)

	llm, err := oracle.New(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	conv := converter.NewRouting(docling.NewClient(&cfg.Converter), xlsx.NewConverter())

	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	matcher := service.NewPromptMatcher(docRepo, llm)
	extraction := service.NewExtractionService(docRepo, conv, llm, matcher, storage, &cfg.S3, cfg.Pool.Workers)

	docH := handler.NewDocumentHandler(extraction)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(docH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
