package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PEOPLESTORE_TEST_VALUE", "set")

	assert.Equal(t, "set", GetEnv("PEOPLESTORE_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetEnv("PEOPLESTORE_TEST_MISSING", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PEOPLESTORE_TEST_INT", "42")
	t.Setenv("PEOPLESTORE_TEST_BAD_INT", "forty-two")

	assert.Equal(t, 42, GetEnvInt("PEOPLESTORE_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("PEOPLESTORE_TEST_BAD_INT", 1))
	assert.Equal(t, 1, GetEnvInt("PEOPLESTORE_TEST_MISSING", 1))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("PEOPLESTORE_TEST_BOOL", "true")
	t.Setenv("PEOPLESTORE_TEST_BAD_BOOL", "maybe")

	assert.True(t, GetEnvBool("PEOPLESTORE_TEST_BOOL", false))
	assert.True(t, GetEnvBool("PEOPLESTORE_TEST_BAD_BOOL", true))
	assert.False(t, GetEnvBool("PEOPLESTORE_TEST_MISSING", false))
}

func TestResolveConfFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PEOPLESTORE_HOME", home)

	assert.Equal(t, "", ResolveConfFilePath(""))
	assert.Equal(t, "/etc/peoplestore.yaml", ResolveConfFilePath("/etc/peoplestore.yaml"))
	assert.Equal(t, filepath.Join(home, "conf", "config.yaml"), ResolveConfFilePath("config.yaml"))

	local := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(local, []byte("store: {}"), 0644))
	assert.Equal(t, local, ResolveConfFilePath(local))
}
