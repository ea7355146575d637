package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/cli"
	"github.com/purple-archive/archiveclient/config"
	"github.com/purple-archive/archiveclient/database"
	"github.com/purple-archive/archiveclient/listing"
	"github.com/purple-archive/archiveclient/repository"
	"github.com/purple-archive/archiveclient/session"
	"github.com/purple-archive/archiveclient/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.DataDirectory, cfg.ThumbnailsPath, cfg.DownloadsPath}
	for _, p := range storagePaths {
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize settings database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate settings database: %v", err)
	}
	settings := repository.NewSettingsRepository(gormDB)

	historyDB, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize history database: %v", err)
	}
	defer historyDB.Close()

	ctx := context.Background()

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	sess := session.New(client, settings)
	if sess.Restore(ctx) {
		log.Printf("session restored for %s", sess.User().DisplayName)
	}

	state := listing.NewState(ctx, settings, client, config.AlbumsPerPage)

	prefetcher := workers.NewThumbnailPrefetcher(cfg, client.FetchContent, cfg.ThumbnailQueueSize, cfg.NumThumbnailWorkers)
	defer prefetcher.Stop()

	// warm the thumbnail cache for every page the user lands on
	state.SetResultHook(func(snap listing.Snapshot) {
		for _, album := range snap.Albums {
			if album.ThumbSource != "" {
				prefetcher.QueueThumbnail(workers.ThumbnailJob{AlbumID: album.ID, ThumbSource: album.ThumbSource})
			}
		}
	})

	app, err := cli.New(cfg, client, sess, state, historyDB, prefetcher)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize CLI: %v", err)
	}
	if err := app.Run(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
