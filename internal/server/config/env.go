package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first when present; real environment
// variables win over file entries (godotenv does not override existing ones).
//
// Recognized variables:
//
//	ADDRESS               HTTP bind address
//	DATABASE_DSN          PostgreSQL DSN
//	CORS_ORIGIN           allowed CORS origin
//	ACCESS_TOKEN_KEY      access token signing secret
//	REFRESH_TOKEN_KEY     refresh token signing secret
//	ACCESS_TOKEN_EXPIRY   access token lifetime (Go duration, e.g. "15m")
//	REFRESH_TOKEN_EXPIRY  refresh token lifetime (Go duration, e.g. "240h")
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("CORS_ORIGIN", &config.CORSOrigin)
	setString("ACCESS_TOKEN_KEY", &config.AccessTokenKey)
	setString("REFRESH_TOKEN_KEY", &config.RefreshTokenKey)
	setDuration("ACCESS_TOKEN_EXPIRY", &config.AccessTokenValidityDuration)
	setDuration("REFRESH_TOKEN_EXPIRY", &config.RefreshTokenValidityDuration)
}
