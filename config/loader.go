package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/restfetch/restfetch/types"
)

const DefaultConfigPath = "config.yml"

type Loader struct {
	validator *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load builds the effective configuration: defaults, overridden by the
// YAML file when it exists, overridden by environment variables. A missing
// file at the default path is not an error; a missing file at an explicit
// path is.
func (l *Loader) Load(configPath string) (*types.AppConfig, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	config := l.Defaults()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, types.Errorf(types.ErrConfigParseFailed, "%s: %v", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults + env only
	default:
		return nil, types.Errorf(types.ErrConfigNotFound, "%s: %v", configPath, err)
	}

	l.applyEnv(config)

	if err := l.validator.Struct(config); err != nil {
		return nil, types.WrapError(types.ErrConfigValidateFailed, err.Error())
	}

	return config, nil
}

func (l *Loader) Defaults() *types.AppConfig {
	return &types.AppConfig{
		Name:    "restfetch",
		Version: "1.0.0",
		Client: &types.ClientConfig{
			BaseURL:     "https://jsonplaceholder.typicode.com",
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			BackoffBase: 500 * time.Millisecond,
			BackoffMax:  30 * time.Second,
			CircuitBreaker: &types.CircuitBreakerConfig{
				Enabled: false,
			},
		},
		Cache: &types.CacheConfig{
			Type: "file",
			Dir:  "cache",
			TTL:  300 * time.Second,
			Redis: &types.RedisConfig{
				Host:        "localhost",
				Port:        6379,
				KeyPrefix:   "restfetch",
				DialTimeout: 5 * time.Second,
			},
		},
		Logger: &types.LoggerConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: &types.MetricsConfig{
			Enabled: false,
			Type:    "memory",
		},
	}
}

// applyEnv keeps the original deployment surface: the same variables the
// process historically read keep working without a config file.
func (l *Loader) applyEnv(config *types.AppConfig) {
	if v := os.Getenv("API_BASE"); v != "" {
		config.Client.BaseURL = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		config.Cache.Dir = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			config.Cache.TTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logger.Level = v
	}
}
