package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	Strava  StravaConfig
	Google  GoogleConfig
	App     AppConfig
}

type ServerConfig struct {
	Port      string
	PublicURL string
	// ClientURL is where OAuth flows hand the browser back to the frontend.
	ClientURL      string
	AllowedOrigins []string
}

type StorageConfig struct {
	Driver      string
	DatabaseURL string
	RedisURL    string
}

type SessionConfig struct {
	TTL          time.Duration
	JWTSecret    string
	CookieDomain string
	CookieSecure bool
}

type StravaConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	RateLimit    float64
	RateBurst    int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	UserInfoURL  string
}

type AppConfig struct {
	Environment          string
	LogLevel             string
	ProviderTimeout      time.Duration
	TokenRefreshSchedule string
	VerifyPasswords      bool
}

// defaultOrigins are the local frontend dev servers.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:5000"), "/"),
			ClientURL:      strings.TrimRight(getEnv("CLIENT_URL", defaultOrigins[0]), "/"),
			AllowedOrigins: allowedOrigins(),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", StorageMemory),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Session: SessionConfig{
			TTL:          getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			JWTSecret:    getEnv("JWT_SECRET", ""),
			CookieDomain: getEnv("COOKIE_DOMAIN", ""),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Strava: StravaConfig{
			ClientID:     getEnv("STRAVA_CLIENT_ID", ""),
			ClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
			BaseURL:      strings.TrimRight(getEnv("STRAVA_BASE_URL", "https://www.strava.com"), "/"),
			RateLimit:    getEnvAsFloat("STRAVA_RATE_LIMIT", 1),
			RateBurst:    getEnvAsInt("STRAVA_RATE_BURST", 5),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			UserInfoURL:  getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo"),
		},
		App: AppConfig{
			Environment:          getEnv("APP_ENV", "development"),
			LogLevel:             getEnv("LOG_LEVEL", "info"),
			ProviderTimeout:      getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", ""),
			VerifyPasswords:      getEnvAsBool("VERIFY_PASSWORDS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}

	if c.Session.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return errors.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.App.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}

	return nil
}

// StravaRedirectURL is the fixed callback registered with the fitness provider.
func (c *Config) StravaRedirectURL() string {
	return c.Server.PublicURL + "/api/strava/callback"
}

func (c *Config) GoogleRedirectURL() string {
	return c.Server.PublicURL + "/api/auth/google/callback"
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func allowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if extra := os.Getenv("ALLOWED_ORIGINS"); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warnf("Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warnf("Invalid number for %s, using default: %g", key, defaultValue)
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
		log.Warnf("Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warnf("Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
