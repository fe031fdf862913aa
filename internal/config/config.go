package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	AssetDir       string        `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	RenderWorkers  int           `envconfig:"RENDER_WORKERS" default:"4"`
	ImageCacheTTL  time.Duration `envconfig:"IMAGE_CACHE_TTL" default:"10m"`
	ImageTimeout   time.Duration `envconfig:"IMAGE_FETCH_TIMEOUT" default:"15s"`
	ExportRate     float64       `envconfig:"EXPORT_RATE" default:"2"`
	ExportBurst    int           `envconfig:"EXPORT_BURST" default:"4"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; variables already set
// in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins returns the allowed CORS origins as a list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
