// Package config loads kodicast's YAML configuration: the known Kodi hosts, the file server and playback tuning.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPPort = 8080
	DefaultWSPort   = 9090
	localhost       = "localhost"
)

// ErrNoDefaultHost is returned when a host cannot be chosen without the user naming one
var ErrNoDefaultHost = errors.New("cannot determine default host")

// Config represents the application configuration
type Config struct {
	// Default is the key into Hosts used when no host is given on the command line
	Default  string                `yaml:"default,omitempty"`
	Hosts    map[string]HostConfig `yaml:"hosts,omitempty"`
	Server   ServerConfig          `yaml:"server,omitempty"`
	Playback PlaybackConfig        `yaml:"playback,omitempty"`
	Logging  LoggingConfig         `yaml:"logging,omitempty"`
}

// HostConfig describes one Kodi instance
type HostConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	// Discovery resolves the hostname through mDNS before falling back to DNS
	Discovery bool   `yaml:"discovery,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	WSPort    int    `yaml:"ws_port,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	// ListenPort overrides server.listen_port while casting to this host
	ListenPort int `yaml:"listen_port,omitempty"`
}

// ServerConfig contains settings of the local file server
type ServerConfig struct {
	// ListenPort of 0 picks any free port
	ListenPort int `yaml:"listen_port,omitempty"`
}

// PlaybackConfig tunes the playback session
type PlaybackConfig struct {
	EndTimeout      time.Duration `yaml:"end_timeout,omitempty"`
	TeardownTimeout time.Duration `yaml:"teardown_timeout,omitempty"`
	PlaylistID      int           `yaml:"playlist_id,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Host is a fully resolved host entry
type Host struct {
	// Key is the name of the entry in the config, empty when the host did not come from the config
	Key string
	HostConfig
}

// HostFor picks the host to cast to.  A key names a config entry, or is taken as a hostname when no entry matches.
// Without a key the default entry is used, or the only entry, or localhost when nothing is configured.
func (c *Config) HostFor(key string) (Host, error) {
	var h Host
	switch {
	case key != "":
		entry, ok := c.Hosts[key]
		if !ok {
			h = Host{HostConfig: HostConfig{Hostname: key}}
			break
		}
		h = Host{Key: key, HostConfig: entry}
		if h.Hostname == "" {
			h.Hostname = key
		}

	case c.Default == "" && len(c.Hosts) == 0:
		h = Host{HostConfig: HostConfig{Hostname: localhost}}

	case c.Default == "" && len(c.Hosts) == 1:
		for k, entry := range c.Hosts {
			h = Host{Key: k, HostConfig: entry}
		}
		if h.Hostname == "" {
			h.Hostname = localhost
		}

	case c.Default == "":
		return Host{}, fmt.Errorf("%w: no default set, %d hosts configured and none given with -k",
			ErrNoDefaultHost, len(c.Hosts))

	default:
		entry, ok := c.Hosts[c.Default]
		if !ok {
			return Host{}, fmt.Errorf("%w: default %q has no matching host entry", ErrNoDefaultHost, c.Default)
		}
		h = Host{Key: c.Default, HostConfig: entry}
		if h.Hostname == "" {
			h.Hostname = c.Default
		}
	}

	if h.Port == 0 {
		h.Port = DefaultHTTPPort
	}
	if h.WSPort == 0 {
		h.WSPort = DefaultWSPort
	}
	if h.ListenPort == 0 {
		h.ListenPort = c.Server.ListenPort
	}
	return h, nil
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

// save writes the config atomically so an interrupted write never leaves a truncated file behind
func save(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return renameio.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// SaveHost adds or replaces a host entry in the config file on disk
func SaveHost(key string, host HostConfig, makeDefault bool) error {
	return UpdateConfig(func(cfg *Config) {
		if cfg.Hosts == nil {
			cfg.Hosts = map[string]HostConfig{}
		}
		cfg.Hosts[key] = host
		if makeDefault {
			cfg.Default = key
		}
	})
}

// Path returns where the config file is read from
func Path() (string, error) {
	return getConfigPath()
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv(envConfigPath)
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "kodicast", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			EndTimeout:      5 * time.Second,
			TeardownTimeout: 10 * time.Second,
			PlaylistID:      1,
			PollInterval:    time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "kodicast.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\kodicast\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "kodicast", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "kodicast", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/kodicast
		basePath = filepath.Join(homedir, "Library", "Logs", "kodicast")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "kodicast", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "kodicast", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "kodicast.log")
	}
	return filepath.Join(basePath, "kodicast.log")
}
