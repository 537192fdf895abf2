package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envConfigPath = "KODICAST_CONFIG_PATH"

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

// EnvVar documents one supported environment variable
type EnvVar struct {
	Name        string
	Description string
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  envConfigPath,
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(*Config, string) error { return nil },
	},
	{
		name:  "KODICAST_CONFIG_DEFAULT",
		desc:  "Sets the key of the host used when none is given.  Default: None",
		apply: func(c *Config, s string) error { c.Default = s; return nil },
	},
	{
		name:  "KODICAST_CONFIG_SERVER_LISTEN_PORT",
		desc:  "Sets the port the file server listens on.  Default: 0 (any free port)",
		apply: func(c *Config, s string) error { return setInt(&c.Server.ListenPort, s) },
	},
	{
		name:  "KODICAST_CONFIG_PLAYBACK_END_TIMEOUT",
		desc:  "Sets how long to wait for the next item after a stop.  Default: 5s",
		apply: func(c *Config, s string) error { return setDuration(&c.Playback.EndTimeout, s) },
	},
	{
		name:  "KODICAST_CONFIG_PLAYBACK_TEARDOWN_TIMEOUT",
		desc:  "Sets the time allowed for stopping playback on exit.  Default: 10s",
		apply: func(c *Config, s string) error { return setDuration(&c.Playback.TeardownTimeout, s) },
	},
	{
		name:  "KODICAST_CONFIG_PLAYBACK_PLAYLIST_ID",
		desc:  "Sets the Kodi playlist used for multiple items.  Default: 1",
		apply: func(c *Config, s string) error { return setInt(&c.Playback.PlaylistID, s) },
	},
	{
		name:  "KODICAST_CONFIG_PLAYBACK_POLL_INTERVAL",
		desc:  "Sets how often the UI refreshes the playback position.  Default: 1s",
		apply: func(c *Config, s string) error { return setDuration(&c.Playback.PollInterval, s) },
	},
	{
		name:  "KODICAST_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) error { c.Logging.Level = s; return nil },
	},
	{
		name:  "KODICAST_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) error { c.Logging.FilePath = s; return nil },
	},
}

// EnvVars lists the supported environment variables for help output
func EnvVars() []EnvVar {
	vars := make([]EnvVar, len(supportedEnvVars))
	for i, v := range supportedEnvVars {
		vars[i] = EnvVar{Name: v.name, Description: v.desc}
	}
	return vars
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

func setInt(dst *int, s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
