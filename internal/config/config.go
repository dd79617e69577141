package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "TOKODASH"

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DashboardTTLSeconds   int `envconfig:"DASHBOARD_TTL_SECONDS" default:"20"`
	AccessTokenTTLMinutes int `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"480"`

	AuthSecret string `envconfig:"AUTH_SECRET"`

	ExportDir string `envconfig:"EXPORT_DIR" default:"./exports"`
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists. Out-of-range TTLs are clamped back to their
// defaults rather than rejected.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DashboardTTLSeconds < 1 {
		cfg.DashboardTTLSeconds = 20
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
