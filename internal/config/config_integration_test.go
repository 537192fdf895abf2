package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()

	tmpConfigPath := filepath.Join(t.TempDir(), "config.yaml")
	setEnv(t, envConfigPath, tmpConfigPath)

	t.Cleanup(func() {
		cleanupEnvVars(t)
	})

	return tmpConfigPath
}

// TestConfigIntegration tests the config package with actual file operations
// This test uses a temporary directory to avoid interfering with real user configs
func TestConfigIntegration(t *testing.T) {
	// Test loading when no config exists (should create default)
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, 5*time.Second, config.Playback.EndTimeout)
		assert.Equal(t, 10*time.Second, config.Playback.TeardownTimeout)
		assert.Equal(t, 1, config.Playback.PlaylistID)
		assert.Equal(t, time.Second, config.Playback.PollInterval)
		assert.Equal(t, "info", config.Logging.Level)
		assert.NotEmpty(t, config.Logging.FilePath)
		assert.Empty(t, config.Hosts)

		// Verify file was created
		if _, err := os.Stat(tmpConfigPath); os.IsNotExist(err) {
			t.Errorf("Config file was not created at %s", tmpConfigPath)
		}

		// Load the file from disk to assert that the 'dynamic' configurations were not saved when the default config was written
		savedConfig, err := loadFromDisk(tmpConfigPath)
		require.NoError(t, err)
		assert.Empty(t, savedConfig.Logging.FilePath)
	})

	t.Run("DurationsAreHumanReadable", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		loadConfig(t)

		data, err := os.ReadFile(tmpConfigPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "end_timeout: 5s")
	})

	// Test saving and loading custom values
	t.Run("SaveAndLoadConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		customConfig := &Config{
			Default: "lounge",
			Hosts: map[string]HostConfig{
				"lounge": {Hostname: "kodi.lan", Port: 8081, Username: "kodi", ListenPort: 4000},
				"bedroom": {Discovery: true},
			},
			Server: ServerConfig{ListenPort: 5000},
			Playback: PlaybackConfig{
				EndTimeout: 30 * time.Second,
			},
			Logging: LoggingConfig{
				Level:    "error",
				FilePath: "/var/log/kodicast.log",
			},
		}

		saveConfig(t, customConfig, tmpConfigPath)
		loadedConfig := loadConfig(t)

		assert.Equal(t, "lounge", loadedConfig.Default)
		assert.Equal(t, customConfig.Hosts, loadedConfig.Hosts)
		assert.Equal(t, 5000, loadedConfig.Server.ListenPort)
		assert.Equal(t, 30*time.Second, loadedConfig.Playback.EndTimeout)
		// Values missing from the file keep their defaults
		assert.Equal(t, 10*time.Second, loadedConfig.Playback.TeardownTimeout)
		assert.Equal(t, "error", loadedConfig.Logging.Level)
		assert.Equal(t, "/var/log/kodicast.log", loadedConfig.Logging.FilePath)
	})

	// Test invalid YAML handling
	t.Run("InvalidConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		if err := os.WriteFile(tmpConfigPath, []byte("invalid: yaml: ["), 0600); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := Load()
		assert.Error(t, err, "Expected error when loading invalid YAML")
	})

	t.Run("EnvironmentVariableOverrides", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "KODICAST_CONFIG_DEFAULT", "lounge")
		setEnv(t, "KODICAST_CONFIG_SERVER_LISTEN_PORT", "4040")
		setEnv(t, "KODICAST_CONFIG_PLAYBACK_END_TIMEOUT", "1m")
		setEnv(t, "KODICAST_CONFIG_PLAYBACK_TEARDOWN_TIMEOUT", "3s")
		setEnv(t, "KODICAST_CONFIG_PLAYBACK_PLAYLIST_ID", "2")
		setEnv(t, "KODICAST_CONFIG_PLAYBACK_POLL_INTERVAL", "250ms")
		setEnv(t, "KODICAST_CONFIG_LOGGING_LEVEL", "warn")
		setEnv(t, "KODICAST_CONFIG_LOGGING_FILE_PATH", "/kodicast.log")

		config := loadConfig(t)

		assert.Equal(t, "lounge", config.Default)
		assert.Equal(t, 4040, config.Server.ListenPort)
		assert.Equal(t, time.Minute, config.Playback.EndTimeout)
		assert.Equal(t, 3*time.Second, config.Playback.TeardownTimeout)
		assert.Equal(t, 2, config.Playback.PlaylistID)
		assert.Equal(t, 250*time.Millisecond, config.Playback.PollInterval)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "/kodicast.log", config.Logging.FilePath)

		// Remove the level env var, then reload the config.
		// This ensures that the env var overrides were not persisted to disk.
		unsetEnv(t, "KODICAST_CONFIG_LOGGING_LEVEL")

		config = loadConfig(t)

		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("InvalidEnvironmentVariable", func(t *testing.T) {
		setupTestConfig(t)
		setEnv(t, "KODICAST_CONFIG_PLAYBACK_END_TIMEOUT", "soon")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KODICAST_CONFIG_PLAYBACK_END_TIMEOUT")
	})

	t.Run("SaveHost", func(t *testing.T) {
		setupTestConfig(t)
		loadConfig(t)

		err := SaveHost("lounge", HostConfig{Hostname: "192.168.1.20"}, true)
		require.NoError(t, err)

		config := loadConfig(t)
		assert.Equal(t, "lounge", config.Default)
		host, err := config.HostFor("")
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.20", host.Hostname)
	})

	t.Run("ModifyConfig", func(t *testing.T) {
		setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, 0, config.Server.ListenPort)

		err := UpdateConfig(func(config *Config) {
			config.Server.ListenPort = 6000
		})
		if err != nil {
			t.Fatalf("Failed to update config: %v", err)
		}

		// Reload the config and ensure it has the new value
		config = loadConfig(t)
		assert.Equal(t, 6000, config.Server.ListenPort)
	})
}

func TestEnvVarsDocumented(t *testing.T) {
	for _, v := range EnvVars() {
		assert.True(t, strings.HasPrefix(v.Name, "KODICAST_CONFIG_"), v.Name)
		assert.NotEmpty(t, v.Description, v.Name)
	}
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	err := os.Setenv(key, value)
	if err != nil {
		t.Fatalf("Failed to set environment variable: %v", err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	err := os.Unsetenv(key)
	if err != nil {
		t.Fatalf("Failed to unset environment variable: %v", err)
	}
}

func saveConfig(t *testing.T, config *Config, configPath string) {
	t.Helper()
	if err := save(config, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
}

func loadConfig(t *testing.T) *Config {
	t.Helper()
	config, err := Load()
	if err != nil {
		t.Fatalf("Loading of config failed: %v", err)
	}
	return config
}

// Removes any env vars with the KODICAST_CONFIG prefix to ensure test isolation
func cleanupEnvVars(t *testing.T) {
	t.Helper()

	for _, envVar := range os.Environ() {
		if key := strings.Split(envVar, "=")[0]; strings.HasPrefix(key, "KODICAST_CONFIG") {
			unsetEnv(t, key)
		}
	}
}
