package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// developmentJWTSecret signs tokens outside production when JWT_SECRET is unset
const developmentJWTSecret = "lumme-development-secret"

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	AppVersion         string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	TokenTTL           time.Duration
	DeliveryFee        float64
	CORSOrigins        []string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Environment variables may be set directly by the platform
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	ttlHours, err := getEnvInt("TOKEN_TTL_HOURS", 24*30)
	if err != nil {
		return nil, err
	}
	deliveryFee, err := getEnvFloat("DELIVERY_FEE", 50)
	if err != nil {
		return nil, err
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "5000"),
		GoEnv:              getEnv("GO_ENV", "development"),
		AppVersion:         getEnv("APP_VERSION", "1.0.0"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "lumme-api"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "lumme-clients"),
		TokenTTL:           time.Duration(ttlHours) * time.Hour,
		DeliveryFee:        deliveryFee,
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.JWTSecret == "" {
		log.Printf("JWT_SECRET not set, using the development signing secret")
		config.JWTSecret = developmentJWTSecret
	}

	current = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.DeliveryFee < 0 {
		return fmt.Errorf("DELIVERY_FEE must not be negative")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	return nil
}

// GetConfig returns the configuration loaded by the last successful Load
func GetConfig() *Config {
	return current
}

// SetConfig replaces the active configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// S3Enabled reports whether product images can be stored in S3
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
