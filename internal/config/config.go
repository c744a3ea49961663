package config

import (
	"os"
	"strconv"

	"convtest/domain/conversion"
	"convtest/domain/experiment"
	"convtest/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Experiment ExperimentConfig
	Server     ServerConfig
	LogLevel   string
}

// ExperimentConfig holds the defaults for simulated experiments. CLI flags
// and API request bodies override them.
type ExperimentConfig struct {
	NameA        string
	NameB        string
	TrialsA      int
	TrialsB      int
	RateA        float64
	RateB        float64
	Alpha        float64
	Direction    string
	Method       string
	Seed         uint64
	Replications int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Experiment: loadExperimentConfig(),
		Server:     loadServerConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		NameA:        getEnvOrDefault("CONVTEST_NAME_A", experiment.DefaultNameA),
		NameB:        getEnvOrDefault("CONVTEST_NAME_B", experiment.DefaultNameB),
		TrialsA:      getEnvIntOrDefault("CONVTEST_TRIALS_A", 10000),
		TrialsB:      getEnvIntOrDefault("CONVTEST_TRIALS_B", 10000),
		RateA:        getEnvFloatOrDefault("CONVTEST_RATE_A", 0.10),
		RateB:        getEnvFloatOrDefault("CONVTEST_RATE_B", 0.12),
		Alpha:        getEnvFloatOrDefault("CONVTEST_ALPHA", conversion.DefaultAlpha),
		Direction:    getEnvOrDefault("CONVTEST_DIRECTION", string(conversion.Greater)),
		Method:       getEnvOrDefault("CONVTEST_METHOD", string(conversion.MethodWald)),
		Seed:         getEnvUintOrDefault("CONVTEST_SEED", 42),
		Replications: getEnvIntOrDefault("CONVTEST_REPLICATIONS", 1000),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(config *Config) error {
	exp := config.Experiment
	if exp.TrialsA <= 0 || exp.TrialsB <= 0 {
		return errors.ConfigInvalid("CONVTEST_TRIALS_A and CONVTEST_TRIALS_B must be positive")
	}
	if exp.RateA < 0 || exp.RateA > 1 || exp.RateB < 0 || exp.RateB > 1 {
		return errors.ConfigInvalid("CONVTEST_RATE_A and CONVTEST_RATE_B must be in [0, 1]")
	}
	if err := conversion.ValidateAlpha(exp.Alpha); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := conversion.ParseDirection(exp.Direction); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := conversion.ParseIntervalMethod(exp.Method); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if exp.Replications <= 0 {
		return errors.ConfigInvalid("CONVTEST_REPLICATIONS must be positive")
	}
	if exp.NameA == exp.NameB {
		return errors.ConfigInvalid("CONVTEST_NAME_A and CONVTEST_NAME_B must differ")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Request builds a simulated experiment request from the defaults.
func (c ExperimentConfig) Request() (experiment.Request, error) {
	dir, err := conversion.ParseDirection(c.Direction)
	if err != nil {
		return experiment.Request{}, err
	}
	method, err := conversion.ParseIntervalMethod(c.Method)
	if err != nil {
		return experiment.Request{}, err
	}
	return experiment.Request{
		A:    conversion.Variant{Name: c.NameA, Trials: c.TrialsA, TrueRate: c.RateA},
		B:    conversion.Variant{Name: c.NameB, Trials: c.TrialsB, TrueRate: c.RateB},
		Seed: c.Seed,
		Settings: experiment.Settings{
			Alpha:     c.Alpha,
			Direction: dir,
			Method:    method,
		},
	}, nil
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

func getEnvUintOrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
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
