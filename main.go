package main

import (
	"log"

	"github.com/aryasaputra/journalvault/pkg/config"
	"github.com/aryasaputra/journalvault/pkg/provider"
	"github.com/aryasaputra/journalvault/pkg/resolve"
	"github.com/aryasaputra/journalvault/pkg/service"
	"github.com/aryasaputra/journalvault/pkg/web"
)

func main() {
	cfg := config.Load()

	metadata, err := provider.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer metadata.Close()

	objects, err := provider.NewS3Store(provider.S3Options{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatal("Failed to initialize object store:", err)
	}

	journal := service.NewJournal(objects, metadata, cfg.Storage.Bucket, cfg.Upload.MaxMb)
	resolver := resolve.New(objects, cfg.SignedURLTTL())
	router := web.NewRouter(web.NewHandlers(journal, resolver, cfg.Upload.MaxMb))

	log.Printf("Starting server on port %s", cfg.API.Port)
	if err := router.Run(":" + cfg.API.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
