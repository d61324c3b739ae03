package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all server settings, populated from the environment.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"./driftchat.db"`
	JWTSecret  string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	CookieName string `env:"COOKIE_NAME" envDefault:"jwt"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
