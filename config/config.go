package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultDownloadsSubDir  = "downloads"
)

const (
	defaultThumbnailQueueSize  = 200
	defaultNumThumbnailWorkers = 4
	defaultThumbnailMaxSize    = 300
	defaultHTTPTimeoutSeconds  = 30
)

// AlbumsPerPage is the fixed page size of the album list view.
const AlbumsPerPage = 12

type Config struct {
	// base URL of the Purple Archive REST API
	APIBaseURL string

	// local state root
	DataDirectory string

	// settings/history database path
	DatabasePath string

	// local cache paths (full-calculated)
	ThumbnailsPath string
	DownloadsPath  string

	// thumbnail generation settings
	ThumbnailMaxSize int

	// prefetch worker settings
	ThumbnailQueueSize  int
	NumThumbnailWorkers int

	HTTPTimeout time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	apiBaseURL := os.Getenv("ARCHIVE_API_URL")
	if apiBaseURL == "" {
		return Config{}, fmt.Errorf("ARCHIVE_API_URL must be set")
	}

	dataDir := getEnvOrDefault("DATA_DIRECTORY", filepath.Join(".", "archive_data"))
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", dataDir, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", filepath.Join(absDataDir, "archive.db"))

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absDataDir, thumbSubDir)

	downloadsSubDir := getEnvOrDefault("DOWNLOADS_SUBDIR", DefaultDownloadsSubDir)
	absDownloadsPath := filepath.Join(absDataDir, downloadsSubDir)

	thumbMaxSize := getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)

	queueSize := getEnvIntOrDefault("THUMBNAIL_QUEUE_SIZE", defaultThumbnailQueueSize)
	numWorkers := getEnvIntOrDefault("NUM_THUMBNAIL_WORKERS", defaultNumThumbnailWorkers)

	timeoutSecs := getEnvIntOrDefault("HTTP_TIMEOUT_SECONDS", defaultHTTPTimeoutSeconds)

	cfg := Config{
		APIBaseURL:          apiBaseURL,
		DataDirectory:       absDataDir,
		DatabasePath:        dbPath,
		ThumbnailsPath:      absThumbnailsPath,
		DownloadsPath:       absDownloadsPath,
		ThumbnailMaxSize:    thumbMaxSize,
		ThumbnailQueueSize:  queueSize,
		NumThumbnailWorkers: numWorkers,
		HTTPTimeout:         time.Duration(timeoutSecs) * time.Second,
	}

	return cfg, nil
}
