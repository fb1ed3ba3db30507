// ABOUTME: This file handles configuration management for feedly-sync
// ABOUTME: Loads environment variables and validates configuration for the Feedly API integration

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Config holds all configuration for the feedly-sync service
type Config struct {
	ServiceName string
	LogLevel    string

	Database   DatabaseConfig
	Feedly     FeedlyConfig
	RateLimit  RateLimitConfig
	Kubernetes KubernetesConfig
	OAuth2     OAuth2Config
	Sync       SyncConfig
	Server     ServerConfig
	Admin      AdminConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// FeedlyConfig holds Feedly API settings
type FeedlyConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// UserID may be left empty; it is then read from the token response
	UserID   string
	PageSize int
}

// RateLimitConfig holds client-side request pacing
type RateLimitConfig struct {
	RequestInterval time.Duration
	Burst           int
}

// KubernetesConfig holds Kubernetes integration settings
type KubernetesConfig struct {
	// Enabled stores tokens in a Secret; otherwise they live in memory
	Enabled         bool
	InCluster       bool
	Namespace       string
	TokenSecretName string
	// ServiceAccounts allowed to call the admin API, as "namespace:name"
	AllowedServiceAccounts []string
}

// OAuth2Config holds OAuth2 token management settings
type OAuth2Config struct {
	RefreshToken  string
	RefreshBuffer time.Duration
}

// SyncConfig tunes stream and subscription synchronization
type SyncConfig struct {
	Interval             time.Duration
	SubscriptionInterval time.Duration
	MaxPages             int
	MaxConcurrent        int
	RetryFetches         bool
	UnreadOnly           bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AdminConfig secures the admin API
type AdminConfig struct {
	// TokenPublicKeyPath is the ServiceAccount issuer key; empty disables authentication
	TokenPublicKeyPath string
	TokenAudience      string
	RequestsPerHour    int
	Burst              int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnvOrDefault("SERVICE_NAME", "feedly-sync"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "postgres.feedly.svc.cluster.local"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			Name:     getEnvOrDefault("DB_NAME", "feedly"),
			User:     getEnvOrDefault("FEEDLY_DB_USER", "feedly_sync_user"),
			Password: os.Getenv("FEEDLY_DB_PASSWORD"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},

		Feedly: FeedlyConfig{
			BaseURL:      getEnvOrDefault("FEEDLY_BASE_URL", "https://cloud.feedly.com"),
			ClientID:     os.Getenv("FEEDLY_CLIENT_ID"),
			ClientSecret: os.Getenv("FEEDLY_CLIENT_SECRET"),
			UserID:       os.Getenv("FEEDLY_USER_ID"),
			PageSize:     getIntOrDefault("FEEDLY_PAGE_SIZE", 100),
		},

		RateLimit: RateLimitConfig{
			RequestInterval: getDurationOrDefault("FEEDLY_REQUEST_INTERVAL", time.Second),
			Burst:           getIntOrDefault("FEEDLY_REQUEST_BURST", 4),
		},

		Kubernetes: KubernetesConfig{
			Enabled:                getEnvOrDefault("KUBERNETES_TOKEN_STORAGE", "false") == "true",
			InCluster:              getEnvOrDefault("KUBERNETES_IN_CLUSTER", "true") == "true",
			Namespace:              getEnvOrDefault("KUBERNETES_NAMESPACE", "feedly"),
			TokenSecretName:        getEnvOrDefault("OAUTH2_TOKEN_SECRET_NAME", "feedly-sync-oauth2-token"),
			AllowedServiceAccounts: splitList(os.Getenv("ALLOWED_SERVICE_ACCOUNTS")),
		},

		OAuth2: OAuth2Config{
			RefreshToken: os.Getenv("FEEDLY_REFRESH_TOKEN"),
		},

		Sync: SyncConfig{
			Interval:             getDurationOrDefault("SYNC_INTERVAL", 30*time.Minute),
			SubscriptionInterval: getDurationOrDefault("SUBSCRIPTION_SYNC_INTERVAL", 4*time.Hour),
			MaxPages:             getIntOrDefault("SYNC_MAX_PAGES", 10),
			MaxConcurrent:        getIntOrDefault("SYNC_MAX_CONCURRENT", 4),
			RetryFetches:         getEnvOrDefault("SYNC_RETRY_FETCHES", "true") == "true",
			UnreadOnly:           getEnvOrDefault("SYNC_UNREAD_ONLY", "false") == "true",
		},

		Server: ServerConfig{
			Port:         getEnvOrDefault("HTTP_PORT", "8080"),
			ReadTimeout:  getDurationOrDefault("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationOrDefault("HTTP_WRITE_TIMEOUT", 5*time.Minute),
		},

		Admin: AdminConfig{
			TokenPublicKeyPath: os.Getenv("ADMIN_TOKEN_PUBLIC_KEY_PATH"),
			TokenAudience:      os.Getenv("ADMIN_TOKEN_AUDIENCE"),
			RequestsPerHour:    getIntOrDefault("ADMIN_REQUESTS_PER_HOUR", 60),
			Burst:              getIntOrDefault("ADMIN_REQUEST_BURST", 5),
		},
	}

	// seconds, as the token secret tooling writes it
	cfg.OAuth2.RefreshBuffer = 5 * time.Minute
	if buffer := os.Getenv("OAUTH2_TOKEN_REFRESH_BUFFER"); buffer != "" {
		if seconds, err := strconv.Atoi(buffer); err == nil && seconds > 0 {
			cfg.OAuth2.RefreshBuffer = time.Duration(seconds) * time.Second
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Password == "" {
		errs = append(errs, errors.New("FEEDLY_DB_PASSWORD is required"))
	}
	if c.Feedly.ClientID == "" {
		errs = append(errs, errors.New("FEEDLY_CLIENT_ID is required"))
	}
	if c.Feedly.ClientSecret == "" {
		errs = append(errs, errors.New("FEEDLY_CLIENT_SECRET is required"))
	}
	if c.OAuth2.RefreshToken == "" {
		errs = append(errs, errors.New("FEEDLY_REFRESH_TOKEN is required"))
	}
	if c.Feedly.PageSize <= 0 || c.Feedly.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("FEEDLY_PAGE_SIZE must be between 1 and 1000, got %d", c.Feedly.PageSize))
	}
	if c.Sync.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_MAX_PAGES must be positive, got %d", c.Sync.MaxPages))
	}
	return errors.Join(errs...)
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	return lo.Compact(lo.Map(strings.Split(value, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
