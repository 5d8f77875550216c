package server

import (
	"fmt"
	"os"
	"strconv"

	"github.com/huddlehq/huddle/internal/blob"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Addr        string
	DBPath      string
	LogPath     string
	BlobBackend string // "local" or "s3"
	BlobDir     string
	S3          blob.S3Config
	RedisURL    string
	MaxUploadMB int
}

// LoadConfig loads envFile when it exists and reads HUDDLE_* variables.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		Addr:        getEnv("HUDDLE_ADDR", ":8000"),
		DBPath:      getEnv("HUDDLE_DB", "huddle.db"),
		LogPath:     getEnv("HUDDLE_LOG", "logs/huddle-server.log"),
		BlobBackend: getEnv("HUDDLE_BLOB_BACKEND", "local"),
		BlobDir:     getEnv("HUDDLE_BLOB_DIR", "blobs"),
		S3: blob.S3Config{
			Region:    getEnv("S3_REGION", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Prefix:    getEnv("S3_PREFIX", ""),
		},
		RedisURL:    getEnv("REDIS_URL", ""),
		MaxUploadMB: getEnvAsInt("HUDDLE_MAX_UPLOAD_MB", 25),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for values that would fail at startup.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case "local":
		if c.BlobDir == "" {
			return fmt.Errorf("HUDDLE_BLOB_DIR is required for the local blob backend")
		}
	case "s3":
		if c.S3.Region == "" || c.S3.Bucket == "" {
			return fmt.Errorf("S3_REGION and S3_BUCKET are required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("HUDDLE_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
