package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestHostFor(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		key      string
		wantKey  string
		wantHost string
		wantErr  bool
	}{
		{
			name:     "nothing configured",
			cfg:      Config{},
			wantHost: "localhost",
		},
		{
			name:     "single host without hostname",
			cfg:      Config{Hosts: map[string]HostConfig{"lounge": {}}},
			wantKey:  "lounge",
			wantHost: "localhost",
		},
		{
			name:     "single host",
			cfg:      Config{Hosts: map[string]HostConfig{"lounge": {Hostname: "kodi.lan"}}},
			wantKey:  "lounge",
			wantHost: "kodi.lan",
		},
		{
			name:    "several hosts and no default",
			cfg:     Config{Hosts: map[string]HostConfig{"a": {}, "b": {}}},
			wantErr: true,
		},
		{
			name:    "default without entry",
			cfg:     Config{Default: "missing", Hosts: map[string]HostConfig{"a": {}}},
			wantErr: true,
		},
		{
			name:     "default hostname falls back to key",
			cfg:      Config{Default: "b", Hosts: map[string]HostConfig{"a": {}, "b": {}}},
			wantKey:  "b",
			wantHost: "b",
		},
		{
			name:     "key names an entry",
			cfg:      Config{Default: "a", Hosts: map[string]HostConfig{"a": {}, "b": {Hostname: "10.0.0.5"}}},
			key:      "b",
			wantKey:  "b",
			wantHost: "10.0.0.5",
		},
		{
			name:     "unknown key is a hostname",
			cfg:      Config{Hosts: map[string]HostConfig{"a": {}, "b": {}}},
			key:      "kodi.local",
			wantHost: "kodi.local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, err := tt.cfg.HostFor(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoDefaultHost)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, host.Key)
			assert.Equal(t, tt.wantHost, host.Hostname)
		})
	}
}

func TestHostForPorts(t *testing.T) {
	cfg := Config{
		Hosts: map[string]HostConfig{
			"custom": {Port: 80, WSPort: 9999, ListenPort: 4000},
			"plain":  {},
		},
		Server: ServerConfig{ListenPort: 5000},
	}

	custom, err := cfg.HostFor("custom")
	require.NoError(t, err)
	assert.Equal(t, 80, custom.Port)
	assert.Equal(t, 9999, custom.WSPort)
	assert.Equal(t, 4000, custom.ListenPort)

	plain, err := cfg.HostFor("plain")
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPPort, plain.Port)
	assert.Equal(t, DefaultWSPort, plain.WSPort)
	assert.Equal(t, 5000, plain.ListenPort)
}

func TestResolvePassword(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StorePassword("kodi", "kodi.lan", "secret"))

	t.Run("from keyring", func(t *testing.T) {
		h := Host{HostConfig: HostConfig{Hostname: "kodi.lan", Username: "kodi"}}
		require.NoError(t, h.ResolvePassword())
		assert.Equal(t, "secret", h.Password)
	})

	t.Run("config wins", func(t *testing.T) {
		h := Host{HostConfig: HostConfig{Hostname: "kodi.lan", Username: "kodi", Password: "inline"}}
		require.NoError(t, h.ResolvePassword())
		assert.Equal(t, "inline", h.Password)
	})

	t.Run("no entry", func(t *testing.T) {
		h := Host{HostConfig: HostConfig{Hostname: "other", Username: "kodi"}}
		require.NoError(t, h.ResolvePassword())
		assert.Empty(t, h.Password)
	})

	t.Run("no username", func(t *testing.T) {
		h := Host{HostConfig: HostConfig{Hostname: "kodi.lan"}}
		require.NoError(t, h.ResolvePassword())
		assert.Empty(t, h.Password)
	})
}
