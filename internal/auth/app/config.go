package app

import (
	"os"
	"strconv"
	"time"

	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/pkg/jwtx"
)

type Config struct {
	Issuer    string // Required: issuer claim for access tokens
	JWTSecret string // Required: HS256 signing secret (min 32 bytes)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to pepper file for password hashing (default: ./pepper)

	RedisAddr     string // Optional: Redis address for the OTP challenge store (default: localhost:6379)
	RedisPassword string // Optional: Redis password
	RedisDB       int    // Optional: Redis database index (default: 0)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 30 days)

	OtpTTL        time.Duration // Optional: verification code lifetime (default: 120s)
	OtpCodeLength int           // Optional: verification code digits (default: 6)

	SMSMode       string // Optional: sms delivery mode (log, gateway) (default: log)
	SMSGatewayURL string // Required in gateway mode: base URL of the SMS provider
	SMSAPIKey     string // Required in gateway mode: provider API key
	SMSLine       string // Required in gateway mode: sender line number

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "stockguard-auth"),
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		RedisAddr:     getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		OtpTTL:        getEnvDurationOrDefault("AUTH_OTP_TTL", service.DefaultOtpTTL),
		OtpCodeLength: getEnvIntOrDefault("AUTH_OTP_CODE_LENGTH", service.DefaultOtpCodeLength),

		SMSMode:       getEnvOrDefault("AUTH_SMS_MODE", "log"),
		SMSGatewayURL: os.Getenv("AUTH_SMS_GATEWAY_URL"),
		SMSAPIKey:     os.Getenv("AUTH_SMS_API_KEY"),
		SMSLine:       os.Getenv("AUTH_SMS_LINE"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
