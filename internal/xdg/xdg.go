// Package xdg provides helpers to resolve XDG Base Directory paths for bulkforce.
// The state directory holds the encrypted keyring file on Linux when no
// desktop secret store is available.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base.
const AppName = "bulkforce"

// ConfigDir returns the XDG config directory for bulkforce, creating it
// with private permissions (0700). It falls back to ~/.config/bulkforce
// when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for bulkforce, creating it
// with private permissions (0700). It falls back to ~/.local/state/bulkforce
// when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
