package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "kodicast"

// ResolvePassword fills in the password from the OS keyring when the host has a username but no password.  A missing
// keyring entry is not an error.
func (h *Host) ResolvePassword() error {
	if h.Username == "" || h.Password != "" {
		return nil
	}
	secret, err := keyring.Get(keyringService, keyringUser(h.Username, h.Hostname))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading password from keyring: %w", err)
	}
	h.Password = secret
	return nil
}

// StorePassword saves a host password in the OS keyring so the config file does not need to hold it
func StorePassword(username, hostname, password string) error {
	return keyring.Set(keyringService, keyringUser(username, hostname), password)
}

func keyringUser(username, hostname string) string {
	return username + "@" + hostname
}
