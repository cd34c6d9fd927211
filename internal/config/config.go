package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// EnvDevelopment is the only environment in which error details are returned
// to callers.
const EnvDevelopment = "development"

type Config struct {
	Port        uint   `validate:"required,port"`
	Environment string `validate:"required"`
	LogLevel    string
	Version     string
	ServiceName string
}

func Load() (*Config, error) {
	rawPort := getEnv("PORT", "3000")
	port, err := strconv.ParseUint(rawPort, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid server config: PORT %q is not a number", rawPort)
	}

	cfg := &Config{
		Port:        uint(port),
		Environment: getEnv("APP_ENV", getEnv("NODE_ENV", "production")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		ServiceName: getEnv("SERVICE_NAME", "docker-express-env"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// PortString is Port as reported by the status endpoint.
func (c *Config) PortString() string {
	return strconv.FormatUint(uint64(c.Port), 10)
}

// Addr is the listen address for Port on all interfaces.
func (c *Config) Addr() string {
	return ":" + c.PortString()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
