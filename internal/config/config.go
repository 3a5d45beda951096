package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App    AppConfig
	Bot    BotConfig
	Store  StoreConfig
	API    APIConfig
	Auth   AuthConfig
	Logger LoggerConfig
}

// AppConfig carries process identity values.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// BotConfig holds Discord gateway values.
type BotConfig struct {
	Token   string
	GuildID string
}

// StoreConfig holds flat-file persistence values.
type StoreConfig struct {
	DataDir string
}

// APIConfig controls the HTTP status API.
type APIConfig struct {
	Enabled               bool
	Host                  string
	Port                  string
	RequestTimeoutSeconds int
}

// AuthConfig defines status API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "ticket-bot"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Bot: BotConfig{
			Token:   token,
			GuildID: os.Getenv("DISCORD_GUILD_ID"),
		},
		Store: StoreConfig{
			DataDir: getEnv("DATA_DIR", "data"),
		},
		API: APIConfig{
			Enabled:               getEnvAsBool("API_ENABLED", true),
			Host:                  getEnv("API_HOST", "0.0.0.0"),
			Port:                  getEnv("API_PORT", "8080"),
			RequestTimeoutSeconds: getEnvAsInt("API_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a APIConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
