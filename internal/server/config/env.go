package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Values loaded
// from a .env file by godotenv in main are picked up here too.
//
// Recognized variables:
//
//	HTTP_ADDR                       bind address
//	DATABASE_DSN                    PostgreSQL DSN
//	SECRET_KEY                      JWT HMAC secret
//	ACCESS_TOKEN_VALIDITY_MINUTES   access token lifetime, minutes
func parseEnv(config *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		config.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("ACCESS_TOKEN_VALIDITY_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
		}
	}
}
