package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"patient-portal/internal/client"
)

// Session store backends.
const (
	StoreFile  = "file"
	StoreMySQL = "mysql"
	StoreRedis = "redis"
)

// Config holds all configuration for the portal
type Config struct {
	Port        string
	Origin      string
	Environment string
	LogLevel    string
	API         APIConfig
	Session     SessionConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Form        FormConfig
	// RequireLogin rejects booking routes until a user is signed in.
	RequireLogin bool
}

// APIConfig describes the hospital backend
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects where the signed-in user is persisted
type SessionConfig struct {
	Store string
	File  string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds redis connection details
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// FormConfig controls how the booking form treats the session identity
type FormConfig struct {
	IdentityEditable         bool
	AllowPrefilledIdentity   bool
	IncludeIdentityInPayload bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "portal"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	timeoutSeconds, err := getEnvAsInt("API_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	if timeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid API_TIMEOUT_SECONDS: must be positive, got %d", timeoutSeconds)
	}

	store := strings.ToLower(getEnv("SESSION_STORE", StoreFile))
	switch store {
	case StoreFile, StoreMySQL, StoreRedis:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q", store)
	}

	editable, err := getEnvAsBool("IDENTITY_EDITABLE", false)
	if err != nil {
		return nil, err
	}
	allowPrefilled, err := getEnvAsBool("ALLOW_PREFILLED_IDENTITY", true)
	if err != nil {
		return nil, err
	}
	includeIdentity, err := getEnvAsBool("INCLUDE_IDENTITY_IN_PAYLOAD", editable)
	if err != nil {
		return nil, err
	}
	requireLogin, err := getEnvAsBool("REQUIRE_LOGIN", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:5173"),
		Environment: getEnv("NODE_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", client.DefaultBaseURL), "/"),
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		Session: SessionConfig{
			Store: store,
			File:  getEnv("SESSION_FILE", ".portal/storage.json"),
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Prefix:   getEnv("REDIS_PREFIX", "portal:"),
		},
		Form: FormConfig{
			IdentityEditable:         editable,
			AllowPrefilledIdentity:   allowPrefilled,
			IncludeIdentityInPayload: includeIdentity,
		},
		RequireLogin: requireLogin,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
