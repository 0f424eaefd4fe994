package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wassilaaloui/peoplestore/internal/app"
	"github.com/wassilaaloui/peoplestore/internal/config"
	"github.com/wassilaaloui/peoplestore/internal/demo"
	"github.com/wassilaaloui/peoplestore/internal/logging"
	"github.com/wassilaaloui/peoplestore/internal/utils"
)

func main() {
	// Load .env file for local development (ignored in containers)
	loadEnvFile()

	logEnvironmentInfo()
	cfg := loadConfig()

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// a failed run is logged, not fatal
	if _, err := run(ctx, cfg, logger); err != nil {
		logger.Errorw("Demonstration stopped", "error", err)
	}
}

// run starts the application, executes the demonstration and shuts the
// application down again.
func run(ctx context.Context, cfg *config.RawConfig, logger logging.Logger) (*demo.Report, error) {
	application := app.NewApplication(cfg, logger)
	if err := application.Start(); err != nil {
		_ = application.Shutdown()
		return nil, fmt.Errorf("failed to start application: %w", err)
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			logger.Errorf("Application shutdown error: %v", err)
		}
	}()

	runner := demo.NewRunner(application.Repository(), logger)
	return runner.Run(ctx)
}

func loadConfig() *config.RawConfig {
	// PEOPLESTORE_CONFIG may name a YAML file; otherwise env and defaults apply
	return config.LoadConfigWithDefaults(utils.GetEnv("PEOPLESTORE_CONFIG", "config.yaml"))
}

func initLogger(cfg *config.RawConfig) (logging.Logger, error) {
	logDir := os.Getenv("PEOPLESTORE_LOG_DIR")
	if logDir != "" && cfg.Logging.FileName != "" && !filepath.IsAbs(cfg.Logging.FileName) {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		cfg.Logging.FileName = filepath.Join(logDir, cfg.Logging.FileName)
	}

	loggerConfig := cfg.Logging.ConvertToLoggerConfig()
	return logging.NewLogger(&loggerConfig)
}

// loadEnvFile loads a .env file for local development. In containers the
// environment is set directly.
func loadEnvFile() {
	if isRunningInContainer() {
		log.Println("Running in container - using system environment variables")
		return
	}

	envPaths := []string{".env", "../../.env"}
	if home := os.Getenv("PEOPLESTORE_HOME"); home != "" {
		envPaths = append(envPaths, filepath.Join(home, ".env"))
	}

	loaded, err := config.LoadEnvFile(envPaths...)
	switch {
	case err != nil:
		log.Printf("Failed to load .env: %v", err)
	case loaded != "":
		log.Printf("Loaded environment from: %s", loaded)
	default:
		log.Println("No .env file found - using system environment variables")
	}
}

// isRunningInContainer detects if the application is running in a container
func isRunningInContainer() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	if os.Getenv("CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// logEnvironmentInfo logs information about the current environment
func logEnvironmentInfo() {
	appEnv := utils.GetEnv("APP_ENV", "development")
	appName := utils.GetEnv("APP_NAME", "peoplestore")
	appVersion := utils.GetEnv("APP_VERSION", "unknown")

	log.Printf("Starting %s v%s in %s environment", appName, appVersion, appEnv)
	if isRunningInContainer() {
		log.Println("Running in containerized environment")
	}
}
