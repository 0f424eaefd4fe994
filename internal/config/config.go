package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wassilaaloui/peoplestore/internal/logging"
	"github.com/wassilaaloui/peoplestore/internal/utils"
)

// Store drivers
const (
	DriverMongo = "mongo"
	DriverLocal = "local"
)

// RawConfig holds the application configuration
type RawConfig struct {
	Store   RawStoreConfig   `yaml:"store"`
	Logging RawLoggingConfig `yaml:"logging"`
	Tracing RawTracingConfig `yaml:"tracing"`
	Metrics RawMetricsConfig `yaml:"metrics"`
}

// RawStoreConfig selects and configures the document store
type RawStoreConfig struct {
	Driver                   string `yaml:"driver"` // mongo or local
	URI                      string `yaml:"uri"`
	Database                 string `yaml:"database"`
	Collection               string `yaml:"collection"`
	ConnectTimeoutMs         int    `yaml:"connectTimeoutMs"`
	ServerSelectionTimeoutMs int    `yaml:"serverSelectionTimeoutMs"`
	LocalFile                string `yaml:"localFile"` // local driver only; empty keeps data in memory
}

// RawLoggingConfig holds logging-related configuration
type RawLoggingConfig struct {
	Level       string `yaml:"level"`    // debug, info, warn, error, fatal
	FileName    string `yaml:"fileName"` // empty logs to the console
	LoggerName  string `yaml:"loggerName"`
	ServiceName string `yaml:"serviceName"`
}

// RawTracingConfig configures the OTLP trace exporter
type RawTracingConfig struct {
	Endpoint    string `yaml:"endpoint"` // host:port; empty disables tracing
	ServiceName string `yaml:"serviceName"`
	Insecure    bool   `yaml:"insecure"`
}

type RawMetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *RawConfig {
	return &RawConfig{
		Store: RawStoreConfig{
			Driver:                   utils.GetEnv("STORE_DRIVER", DriverMongo),
			URI:                      utils.GetEnv("MONGO_URI", ""),
			Database:                 utils.GetEnv("MONGO_DATABASE", "test"),
			Collection:               utils.GetEnv("MONGO_COLLECTION", "people"),
			ConnectTimeoutMs:         utils.GetEnvInt("MONGO_CONNECT_TIMEOUT_MS", 10000),
			ServerSelectionTimeoutMs: utils.GetEnvInt("MONGO_SERVER_SELECTION_TIMEOUT_MS", 10000),
			LocalFile:                utils.GetEnv("STORE_LOCAL_FILE", ""),
		},
		Logging: RawLoggingConfig{
			Level:       utils.GetEnv("LOG_LEVEL", "info"),
			FileName:    utils.GetEnv("LOG_FILE_NAME", ""),
			LoggerName:  utils.GetEnv("LOG_LOGGER_NAME", "main"),
			ServiceName: utils.GetEnv("LOG_SERVICE_NAME", "peoplestore"),
		},
		Tracing: RawTracingConfig{
			Endpoint:    utils.GetEnv("TRACING_ENDPOINT", ""),
			ServiceName: utils.GetEnv("TRACING_SERVICE_NAME", "peoplestore"),
			Insecure:    utils.GetEnvBool("TRACING_INSECURE", true),
		},
		Metrics: RawMetricsConfig{
			Namespace: utils.GetEnv("METRICS_NAMESPACE", "peoplestore"),
		},
	}
}

// LoadConfigFromFile loads configuration from a YAML file. Unset fields take
// the environment defaults and set environment variables override the file.
func LoadConfigFromFile(configPath string) (*RawConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	config := LoadConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML config file %s: %w", configPath, err)
	}

	overrideWithEnvVars(config)

	return config, nil
}

// LoadConfigWithDefaults loads configuration from file if it exists, falling
// back to environment variables and defaults
func LoadConfigWithDefaults(configPath string) *RawConfig {
	if configPath != "" {
		if config, err := LoadConfigFromFile(utils.ResolveConfFilePath(configPath)); err == nil {
			return config
		}
	}
	return LoadConfig()
}

// LoadEnvFile loads the first readable .env file among paths into the
// process environment. Variables already set are not overwritten. It
// returns the path loaded, or "" when none exists.
func LoadEnvFile(paths ...string) (string, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

func overrideWithEnvVars(config *RawConfig) {
	overrideStoreConfig(&config.Store)
	overrideLoggingConfig(&config.Logging)
	overrideTracingConfig(&config.Tracing)
	if namespace := utils.GetEnv("METRICS_NAMESPACE", ""); namespace != "" {
		config.Metrics.Namespace = namespace
	}
}

func overrideStoreConfig(store *RawStoreConfig) {
	if driver := utils.GetEnv("STORE_DRIVER", ""); driver != "" {
		store.Driver = driver
	}
	if uri := utils.GetEnv("MONGO_URI", ""); uri != "" {
		store.URI = uri
	}
	if database := utils.GetEnv("MONGO_DATABASE", ""); database != "" {
		store.Database = database
	}
	if collection := utils.GetEnv("MONGO_COLLECTION", ""); collection != "" {
		store.Collection = collection
	}
	if timeout := utils.GetEnvInt("MONGO_CONNECT_TIMEOUT_MS", -1); timeout != -1 {
		store.ConnectTimeoutMs = timeout
	}
	if timeout := utils.GetEnvInt("MONGO_SERVER_SELECTION_TIMEOUT_MS", -1); timeout != -1 {
		store.ServerSelectionTimeoutMs = timeout
	}
	if file := utils.GetEnv("STORE_LOCAL_FILE", ""); file != "" {
		store.LocalFile = file
	}
}

func overrideLoggingConfig(logging *RawLoggingConfig) {
	if level := utils.GetEnv("LOG_LEVEL", ""); level != "" {
		logging.Level = level
	}
	if fileName := utils.GetEnv("LOG_FILE_NAME", ""); fileName != "" {
		logging.FileName = fileName
	}
	if loggerName := utils.GetEnv("LOG_LOGGER_NAME", ""); loggerName != "" {
		logging.LoggerName = loggerName
	}
	if serviceName := utils.GetEnv("LOG_SERVICE_NAME", ""); serviceName != "" {
		logging.ServiceName = serviceName
	}
}

func overrideTracingConfig(tracing *RawTracingConfig) {
	if endpoint := utils.GetEnv("TRACING_ENDPOINT", ""); endpoint != "" {
		tracing.Endpoint = endpoint
	}
	if serviceName := utils.GetEnv("TRACING_SERVICE_NAME", ""); serviceName != "" {
		tracing.ServiceName = serviceName
	}
	if os.Getenv("TRACING_INSECURE") != "" {
		tracing.Insecure = utils.GetEnvBool("TRACING_INSECURE", tracing.Insecure)
	}
}

// Validate checks the settings that would otherwise fail late. A missing
// MONGO_URI is not an error here: it surfaces as a connection failure.
func (c *RawConfig) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMongo, DriverLocal:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", DriverMongo, DriverLocal, c.Store.Driver))
	}
	if strings.TrimSpace(c.Store.Collection) == "" {
		errs = append(errs, errors.New("store.collection is required"))
	}
	if c.Store.Driver == DriverMongo && strings.TrimSpace(c.Store.Database) == "" {
		errs = append(errs, errors.New("store.database is required for the mongo driver"))
	}
	if c.Store.ConnectTimeoutMs < 0 || c.Store.ServerSelectionTimeoutMs < 0 {
		errs = append(errs, errors.New("store timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// ConnectTimeout returns the connect timeout as a duration
func (s RawStoreConfig) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutMs) * time.Millisecond
}

// ServerSelectionTimeout returns the server selection timeout as a duration
func (s RawStoreConfig) ServerSelectionTimeout() time.Duration {
	return time.Duration(s.ServerSelectionTimeoutMs) * time.Millisecond
}

// ConvertToLoggerConfig converts the logging section to logging.LoggerConfig
func (cfg RawLoggingConfig) ConvertToLoggerConfig() logging.LoggerConfig {
	return logging.LoggerConfig{
		Level:       logging.ParseLevel(cfg.Level),
		FilePath:    cfg.FileName,
		LoggerName:  cfg.LoggerName,
		ServiceName: cfg.ServiceName,
	}
}
