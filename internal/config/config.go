package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the stats worker.
type Config struct {
	RedisURL   string
	RedisQueue string
	DBURL      string // optional; aliases come from Postgres when set

	WCLClientID     string
	WCLClientSecret string
	WCLAPIURL       string
	WCLTokenURL     string
	WCLRateLimit    float64 // requests per second
	WCLTimeout      time.Duration

	GuildConfig string
	HTTPAddr    string

	WorkerCount   int
	JobBufferSize int

	FoldMortalityAliases bool
	LogLevel             string
}

// Load builds a Config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisQueue:      envOr("REDIS_QUEUE", "stats_requests"),
		DBURL:           os.Getenv("DB_URL"),
		WCLClientID:     os.Getenv("WCL_CLIENT_ID"),
		WCLClientSecret: os.Getenv("WCL_CLIENT_SECRET"),
		WCLAPIURL:       envOr("WCL_API_URL", "https://classic.warcraftlogs.com/api/v2/client"),
		WCLTokenURL:     envOr("WCL_TOKEN_URL", "https://www.warcraftlogs.com/oauth/token"),
		GuildConfig:     envOr("GUILD_CONFIG", "guild.yaml"),
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	if cfg.WCLClientID == "" || cfg.WCLClientSecret == "" {
		return nil, fmt.Errorf("WCL_CLIENT_ID and WCL_CLIENT_SECRET are required")
	}

	var err error

	if cfg.WCLRateLimit, err = envFloat("WCL_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.WCLRateLimit <= 0 {
		return nil, fmt.Errorf("WCL_RATE_LIMIT must be positive")
	}

	if cfg.WCLTimeout, err = envDuration("WCL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.WorkerCount, err = envInt("WORKER_COUNT", 1); err != nil {
		return nil, err
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	if cfg.JobBufferSize, err = envInt("JOB_BUFFER_SIZE", 16); err != nil {
		return nil, err
	}
	if cfg.JobBufferSize < 0 {
		return nil, fmt.Errorf("JOB_BUFFER_SIZE must not be negative")
	}

	if cfg.FoldMortalityAliases, err = envBool("FOLD_MORTALITY_ALIASES", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
