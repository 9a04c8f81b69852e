package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"godea/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Solver   SolverConfig
	Upload   UploadConfig
	LogLevel string `validate:"required,oneof=ERROR WARN WARNING INFO DEBUG TRACE"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// SolverConfig holds the DEA engine settings
type SolverConfig struct {
	Workers             int     `validate:"min=1,max=1024"`
	EfficiencyThreshold float64 `validate:"gt=0,lte=1"`
	PeerThreshold       float64 `validate:"gt=0,lt=1"`
	Tolerance           float64 `validate:"gt=0,lt=0.001"`
}

// UploadConfig holds limits for uploaded tables
type UploadConfig struct {
	MaxUploadMB int `validate:"min=1,max=1024"`
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Solver:   *loadSolverConfig(),
		Upload:   *loadUploadConfig(),
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadSolverConfig() *SolverConfig {
	return &SolverConfig{
		Workers:             getEnvIntOrDefault("DEA_WORKERS", runtime.NumCPU()),
		EfficiencyThreshold: getEnvFloatOrDefault("DEA_EFFICIENCY_THRESHOLD", 0.999),
		PeerThreshold:       getEnvFloatOrDefault("DEA_PEER_THRESHOLD", 1e-4),
		Tolerance:           getEnvFloatOrDefault("DEA_SOLVER_TOLERANCE", 1e-10),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxUploadMB: getEnvIntOrDefault("DEA_MAX_UPLOAD_MB", 20),
	}
}

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fe.Namespace() + " fails " + fe.Tag() + " (got " + valueString(fe.Value()) + ")")
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxUploadMB) << 20
}

func valueString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return "?"
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
