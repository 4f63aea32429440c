package types

import (
	"time"
)

type AppConfig struct {
	Name    string         `yaml:"name" json:"name" validate:"required"`
	Version string         `yaml:"version" json:"version" validate:"required"`
	Client  *ClientConfig  `yaml:"client" json:"client" validate:"required"`
	Cache   *CacheConfig   `yaml:"cache" json:"cache" validate:"required"`
	Logger  *LoggerConfig  `yaml:"logger" json:"logger" validate:"required"`
	Metrics *MetricsConfig `yaml:"metrics" json:"metrics"`
}

type ClientConfig struct {
	BaseURL        string                `yaml:"base_url" json:"base_url" validate:"required,url"`
	Timeout        time.Duration         `yaml:"timeout" json:"timeout" validate:"min=0"`
	MaxAttempts    int                   `yaml:"max_attempts" json:"max_attempts" validate:"min=1"`
	BackoffBase    time.Duration         `yaml:"backoff_base" json:"backoff_base" validate:"min=0"`
	BackoffMax     time.Duration         `yaml:"backoff_max" json:"backoff_max" validate:"min=0"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold" validate:"min=0"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" json:"recovery_timeout" validate:"min=0"`
}

type CacheConfig struct {
	// Type selects the persisted tier backend: "file" or "redis".
	Type  string        `yaml:"type" json:"type" validate:"required,oneof=file redis"`
	Dir   string        `yaml:"dir" json:"dir" validate:"required_if=Type file"`
	TTL   time.Duration `yaml:"ttl" json:"ttl" validate:"min=0"`
	Redis *RedisConfig  `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	KeyPrefix    string        `yaml:"key_prefix" json:"key_prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" validate:"required"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
	File   string `yaml:"file" json:"file"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type" validate:"required_if=Enabled true,omitempty,oneof=memory prometheus"`
}
