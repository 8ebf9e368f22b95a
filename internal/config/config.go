package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr             string
	MongoURI         string
	MongoDatabase    string
	StoreCollection  string
	ReviewCollection string
	UserCollection   string
	UploadDir        string
	Timeout          time.Duration
	ServerLog        *log.Logger
	JWTConfigs       []JWTConfig
	JWTAudience      string
	TokenTTL         time.Duration
	AllowedOrigins   []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	timeout := 10 * time.Second
	if v := os.Getenv("MONGO_CONNECT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			timeout = parsed
		}
	}

	tokenTTL := 168 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("AUTH_TOKEN_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			tokenTTL = parsed
		}
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "store-directory-auth"),
			Secret: []byte(secret),
		})
	}
	if len(jwtConfigs) == 0 {
		log.Fatal("JWT secret not configured. Set AUTH_JWT_SECRET.")
	}

	cfg := Config{
		Addr:             envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:         envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:    envOrDefault("MONGO_DB", "store-directory"),
		StoreCollection:  envOrDefault("STORE_COLLECTION", "stores"),
		ReviewCollection: envOrDefault("REVIEW_COLLECTION", "reviews"),
		UserCollection:   envOrDefault("USER_COLLECTION", "users"),
		UploadDir:        envOrDefault("UPLOAD_DIR", "./public/uploads"),
		Timeout:          timeout,
		ServerLog:        log.New(os.Stdout, "[store-directory-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:       jwtConfigs,
		JWTAudience:      strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		TokenTTL:         tokenTTL,
		AllowedOrigins:   parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
