package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// ResolveConfFilePath resolves a relative config path against
// $PEOPLESTORE_HOME/conf. Absolute paths and files present in the working
// directory are returned unchanged.
func ResolveConfFilePath(configPath string) string {
	if configPath == "" || filepath.IsAbs(configPath) {
		return configPath
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}
	homeDir := os.Getenv("PEOPLESTORE_HOME")
	if homeDir == "" {
		return configPath
	}
	return filepath.Join(homeDir, "conf", configPath)
}
