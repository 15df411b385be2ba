package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// Storage selects the persistence gateway: file, redis, or git.
	Storage      string
	DataDir      string
	SnapshotPath string
	HistoryDir   string
	RedisURL     string
	MaxUploadMB  int
	// CurrentUserID identifies the local author for new comments, reactions,
	// and uploads.
	CurrentUserID string
}

func Load() Config {
	dataDir := getenv("MARGINALIA_DATA_DIR", "./data")
	return Config{
		Storage:       getenv("MARGINALIA_STORAGE", "file"),
		DataDir:       dataDir,
		SnapshotPath:  getenv("MARGINALIA_SNAPSHOT_PATH", filepath.Join(dataDir, "comments.json")),
		HistoryDir:    getenv("MARGINALIA_HISTORY_DIR", filepath.Join(dataDir, "history")),
		RedisURL:      getenv("MARGINALIA_REDIS_URL", "redis://localhost:6379/0"),
		MaxUploadMB:   getenvInt("MARGINALIA_MAX_UPLOAD_MB", 10),
		CurrentUserID: getenv("MARGINALIA_USER", "local"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
