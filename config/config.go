package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Progress ProgressConfig
	Backup   BackupConfig
	LogMode  string
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ServiceToken   string
}

// StorageConfig selects and configures the profile document backend.
type StorageConfig struct {
	Driver      string // memory, file, postgres, sqlite, redis
	DatabaseURL string
	SQLitePath  string
	ProfileDir  string
	RedisURL    string
	KeyPrefix   string
}

// ProgressConfig toggles the stricter policies for the open questions.
type ProgressConfig struct {
	StrictAchievements bool
	StrictDecode       bool
}

// BackupConfig configures the periodic R2 snapshot job. Disabled when Bucket is empty.
type BackupConfig struct {
	Interval        time.Duration
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
}

// Enabled reports whether backups should be scheduled.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.Interval > 0
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	interval, err := getDuration("BACKUP_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5200"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			ServiceToken:   os.Getenv("GAME_SERVICE_TOKEN"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnv("SQLITE_PATH", "progress.db"),
			ProfileDir:  getEnv("PROFILE_DIR", "./data/profiles"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix:   getEnv("PROFILE_KEY_PREFIX", "wildlife-user-profile"),
		},
		Progress: ProgressConfig{
			StrictAchievements: getBool("STRICT_ACHIEVEMENTS", false),
			StrictDecode:       getBool("STRICT_DECODE", false),
		},
		Backup: BackupConfig{
			Interval:        interval,
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			Prefix:          getEnv("R2_BACKUP_PREFIX", "profile-backups"),
		},
		LogMode: getEnv("LOG_MODE", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "file", "sqlite", "redis":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Server.ServiceToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN environment variable not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
