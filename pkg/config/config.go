package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "THOUGHTSTREAM_"

type Config struct {
	Addr      string `yaml:"addr"`
	Upstream  string `yaml:"upstream"`
	Timeout   string `yaml:"timeout"`
	StaticDir string `yaml:"static_dir"`

	clientTimeout time.Duration
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		Upstream:  "https://jsonplaceholder.typicode.com",
		Timeout:   "",
		StaticDir: "static",
	}
}

// Load reads the YAML file if it exists, then applies overrides from a
// .env file and the environment. An empty timeout means none at all: a
// hung upstream request is the caller's problem to cancel via context.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults apply
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	godotenv.Load() //nolint:errcheck

	if v := os.Getenv(envPrefix + "ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(envPrefix + "UPSTREAM"); v != "" {
		cfg.Upstream = v
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv(envPrefix + "STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.clientTimeout = d
	}

	return cfg, nil
}

func (c Config) ClientTimeout() time.Duration {
	return c.clientTimeout
}
