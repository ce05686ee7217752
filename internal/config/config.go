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

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Redis cache configuration
	Cache CacheConfig

	// Message broker configuration
	Broker BrokerConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// PaymentConfig holds Paystack configuration
type PaymentConfig struct {
	SecretKey     string        // Paystack secret key (SECRET - never expose to client)
	BaseURL       string        // Paystack API base URL
	WebhookSecret string        // HMAC key for x-paystack-signature, defaults to SecretKey
	Currency      string        // ISO currency sent with every transaction
	CallbackURL   string        // Frontend page the gateway redirects to after checkout
	Timeout       time.Duration // Upper bound for a single gateway call
	PendingTTL    time.Duration // Age after which a pending payment is swept
	SweepSchedule string        // Cron expression for the pending payment sweeper
}

// CacheConfig holds Redis configuration
type CacheConfig struct {
	RedisURL       string
	DestinationTTL time.Duration
}

// BrokerConfig holds RabbitMQ configuration
type BrokerConfig struct {
	RabbitMQURL string
	Exchange    string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	EnableRequestLog   bool
	LoginMaxAttempts   int           // Failed logins per email before throttling
	LoginWindow        time.Duration // Window for the per-email counter
	LoginMaxIPAttempts int           // Failed logins per client IP before throttling
	LoginIPWindow      time.Duration // Window for the per-IP counter
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	secretKey := getEnv("PAYSTACK_SECRET_KEY", "")

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("JWT_TOKEN_EXPIRY", 43200)) * time.Second, // 12 hours
		},
		Payment: PaymentConfig{
			SecretKey:     secretKey,
			BaseURL:       getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			WebhookSecret: getEnv("PAYSTACK_WEBHOOK_SECRET", secretKey),
			Currency:      getEnv("PAYSTACK_CURRENCY", "USD"),
			CallbackURL:   getEnv("PAYSTACK_CALLBACK_URL", "http://localhost:5173/payment/verify"),
			Timeout:       time.Duration(getEnvAsInt("PAYSTACK_TIMEOUT", 15)) * time.Second,
			PendingTTL:    time.Duration(getEnvAsInt("PAYMENT_PENDING_TTL", 1800)) * time.Second,
			SweepSchedule: getEnv("PAYMENT_SWEEP_SCHEDULE", "0 */5 * * * *"),
		},
		Cache: CacheConfig{
			RedisURL:       getEnv("REDIS_URL", ""),
			DestinationTTL: time.Duration(getEnvAsInt("DESTINATION_CACHE_TTL", 300)) * time.Second,
		},
		Broker: BrokerConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "safarihub.events"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog:   getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:        time.Duration(getEnvAsInt("LOGIN_WINDOW", 900)) * time.Second,
			LoginMaxIPAttempts: getEnvAsInt("LOGIN_MAX_IP_ATTEMPTS", 20),
			LoginIPWindow:      time.Duration(getEnvAsInt("LOGIN_IP_WINDOW", 3600)) * time.Second,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.TokenExpiry <= 0 {
		return fmt.Errorf("JWT_TOKEN_EXPIRY must be positive")
	}

	if c.Payment.Timeout <= 0 {
		return fmt.Errorf("PAYSTACK_TIMEOUT must be positive")
	}

	// Webhooks fail closed without a secret, refuse to boot production that way
	if c.IsProduction() {
		if c.Payment.SecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required in production")
		}
		if c.Payment.WebhookSecret == "" {
			return fmt.Errorf("PAYSTACK_WEBHOOK_SECRET is required in production")
		}
	}

	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
