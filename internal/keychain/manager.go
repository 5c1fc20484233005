// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for bulkforce.
// It keeps the Salesforce session id, the OAuth refresh token and the
// serialized login state between CLI invocations.
//
// macOS uses the security command or the Keychain, Windows uses the
// Credential Manager, and Linux uses the Secret Service, KWallet or pass,
// falling back to an encrypted file under the XDG state directory.
package keychain

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/99designs/keyring"

	"bulkforce/cli/internal/xdg"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "bulkforce"

// Keys used for storing secrets in the OS keychain.
const (
	KeySessionID    = "sf_session_id"
	KeyRefreshToken = "sf_refresh_token"
	KeyAuthState    = "auth_state"
)

// FilePasswordEnv names the variable that unlocks the file backend.
const FilePasswordEnv = "BULKFORCE_KEYRING_PASSWORD"

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewWithKeyring wraps an already opened keyring.
func NewWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring with the backends suited to the platform.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName: ServiceName,
		PassPrefix:  ServiceName,
	}

	switch runtime.GOOS {
	case "darwin":
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
		cfg.WinCredPrefix = ServiceName
	default:
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
		cfg.LibSecretCollectionName = ServiceName
		cfg.KWalletAppID = ServiceName
		cfg.KWalletFolder = ServiceName
		cfg.FileDir = filepath.Join(dir, "keyring")
		cfg.FilePasswordFunc = filePassword
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(FilePasswordEnv); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// SaveSession stores the session id.
func (m *Manager) SaveSession(sessionID string) error {
	return m.set(KeySessionID, []byte(sessionID))
}

// LoadSession returns the stored session id or ErrNotFound.
func (m *Manager) LoadSession() (string, error) {
	b, err := m.get(KeySessionID)
	return string(b), err
}

// SaveRefreshToken stores the OAuth refresh token.
func (m *Manager) SaveRefreshToken(token string) error {
	return m.set(KeyRefreshToken, []byte(token))
}

// LoadRefreshToken returns the stored refresh token or ErrNotFound.
func (m *Manager) LoadRefreshToken() (string, error) {
	b, err := m.get(KeyRefreshToken)
	return string(b), err
}

// SaveAuthState stores serialized auth state.
func (m *Manager) SaveAuthState(data []byte) error {
	return m.set(KeyAuthState, data)
}

// LoadAuthState returns serialized auth state, or nil when none is stored.
func (m *Manager) LoadAuthState() ([]byte, error) {
	b, err := m.get(KeyAuthState)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// ClearAuth removes every secret bulkforce stores.
func (m *Manager) ClearAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range []string{KeySessionID, KeyRefreshToken, KeyAuthState} {
		if m.backend != nil {
			_ = m.backend.Delete(key)
			continue
		}
		_ = m.ring.Remove(key)
	}
	return nil
}

func (m *Manager) set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(key, string(data))
	}
	return m.ring.Set(keyring.Item{Key: key, Data: data, Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var data []byte
	if m.backend != nil {
		v, err := m.backend.Get(key)
		if err != nil {
			return nil, err
		}
		data = []byte(v)
	} else {
		it, err := m.ring.Get(key)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		data = it.Data
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}
