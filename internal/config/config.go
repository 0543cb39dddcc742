package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	Cache    CacheConfig
	Screens  ScreenConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
	LoginPath    string
	DeniedPath   string
}

type CacheConfig struct {
	TTL           time.Duration
	RedisAddr     string // empty selects the in-memory store
	RedisPassword string
	RedisDB       int
}

type ScreenConfig struct {
	DefaultPageSize        int
	VerifyDelay            time.Duration
	LoginRequestsPerMinute int
	SweepInterval          time.Duration
	PendingActionTTL       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	upstreamURL := getEnv("UPSTREAM_BASE_URL", "")
	if upstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	upstreamURL = strings.TrimRight(upstreamURL, "/")

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      env,
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Upstream: UpstreamConfig{
			BaseURL: upstreamURL,
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			Secret:       sessionSecret,
			TTL:          getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			CookieSecure: env == "production",
			LoginPath:    getEnv("LOGIN_PATH", "/login"),
			DeniedPath:   getEnv("DENIED_PATH", "/unauthorized"),
		},
		Cache: CacheConfig{
			TTL:           getEnvAsDuration("LIST_CACHE_TTL", 60*time.Second),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Screens: ScreenConfig{
			DefaultPageSize:        getEnvAsInt("DEFAULT_PAGE_SIZE", 5),
			VerifyDelay:            getEnvAsDuration("MUTATION_VERIFY_DELAY", 2*time.Second),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 5),
			SweepInterval:          getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
			PendingActionTTL:       getEnvAsDuration("PENDING_ACTION_TTL", 5*time.Minute),
		},
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the cookie
// signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
