// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config holds the client options read from the environment.
// Secrets are never persisted here; the CLI keeps sessions in the OS keychain.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Failure policies applied when a job was opened but its batch could not be submitted.
const (
	OnFailureLeave = "leave"
	OnFailureClose = "close"
	OnFailureAbort = "abort"
)

// Config is the full option set of the client. It is read once and then
// passed by value; nothing in the client mutates it.
type Config struct {
	APIVersion    string `env:"SALESFORCE_API_VERSION" default:"33.0"`
	Username      string `env:"SALESFORCE_USERNAME"`
	Password      string `env:"SALESFORCE_PASSWORD"`
	SecurityToken string `env:"SALESFORCE_SECURITY_TOKEN"`
	Host          string `env:"SALESFORCE_HOST" default:"login.salesforce.com"`
	SessionID     string `env:"SALESFORCE_SESSION_ID"`
	Instance      string `env:"SALESFORCE_INSTANCE"`
	ClientID      string `env:"SALESFORCE_CLIENT_ID"`
	ClientSecret  string `env:"SALESFORCE_CLIENT_SECRET"`
	RefreshToken  string `env:"SALESFORCE_REFRESH_TOKEN"`
	Proxy         string `env:"SALESFORCE_PROXY"`
	ProxyUsername string `env:"SALESFORCE_PROXY_USERNAME"`
	ProxyPassword string `env:"SALESFORCE_PROXY_PASSWORD"`

	BaseDomain      string        `env:"BULKFORCE_BASE_DOMAIN" default:"salesforce.com"`
	Timeout         time.Duration `env:"BULKFORCE_TIMEOUT" default:"2m"`
	AttachmentRoot  string        `env:"BULKFORCE_ATTACHMENT_ROOT"`
	OnSubmitFailure string        `env:"BULKFORCE_ON_SUBMIT_FAILURE" default:"leave"`
	PollInterval    time.Duration `env:"BULKFORCE_POLL_INTERVAL" default:"2s"`
	LogLevel        string        `env:"BULKFORCE_LOG_LEVEL" envAlt:"LOG_LEVEL" default:"info"`
}

// Defaults returns a Config holding only default values.
func Defaults() Config {
	return Config{
		APIVersion:      "33.0",
		Host:            "login.salesforce.com",
		BaseDomain:      "salesforce.com",
		Timeout:         2 * time.Minute,
		OnSubmitFailure: OnFailureLeave,
		PollInterval:    2 * time.Second,
		LogLevel:        "info",
	}
}

// Options returns the set options keyed by their snake case names.
// Unset options are omitted.
func (c Config) Options() map[string]string {
	all := map[string]string{
		"api_version":    c.APIVersion,
		"username":       c.Username,
		"password":       c.Password,
		"security_token": c.SecurityToken,
		"host":           c.Host,
		"session_id":     c.SessionID,
		"instance":       c.Instance,
		"client_id":      c.ClientID,
		"client_secret":  c.ClientSecret,
		"refresh_token":  c.RefreshToken,
		"proxy":          c.Proxy,
		"proxy_username": c.ProxyUsername,
		"proxy_password": c.ProxyPassword,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// HasSession reports whether an existing session can be reused.
func (c Config) HasSession() bool { return c.SessionID != "" && c.Instance != "" }

// HasPassword reports whether a SOAP password login can be attempted.
func (c Config) HasPassword() bool { return c.Username != "" && c.Password != "" }

// HasOAuth reports whether a refresh-token exchange can be attempted.
func (c Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// IsSalesforceHost reports whether Host belongs to salesforce.com.
func (c Config) IsSalesforceHost() bool {
	h := strings.TrimSuffix(strings.ToLower(c.Host), "/")
	return h == "salesforce.com" || strings.HasSuffix(h, ".salesforce.com")
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures. Missing credentials
// are not a validation failure; the connection builder reports those.
func (c Config) Validate() error {
	var errs []string

	if c.APIVersion == "" {
		errs = append(errs, "SALESFORCE_API_VERSION must not be empty")
	}
	if c.Host == "" {
		errs = append(errs, "SALESFORCE_HOST must not be empty")
	}
	if strings.Contains(c.Host, "://") {
		errs = append(errs, fmt.Sprintf("SALESFORCE_HOST (%q) must be a host name, not a URL", c.Host))
	}
	if c.BaseDomain == "" {
		errs = append(errs, "BULKFORCE_BASE_DOMAIN must not be empty")
	}
	if (c.SessionID == "") != (c.Instance == "") {
		errs = append(errs, "SALESFORCE_SESSION_ID and SALESFORCE_INSTANCE must be set together")
	}
	if c.ProxyPassword != "" && c.ProxyUsername == "" {
		errs = append(errs, "SALESFORCE_PROXY_PASSWORD requires SALESFORCE_PROXY_USERNAME")
	}
	if c.ProxyUsername != "" && c.Proxy == "" {
		errs = append(errs, "SALESFORCE_PROXY_USERNAME requires SALESFORCE_PROXY")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "BULKFORCE_TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 {
		errs = append(errs, "BULKFORCE_POLL_INTERVAL must be positive")
	}

	switch strings.ToLower(c.OnSubmitFailure) {
	case OnFailureLeave, OnFailureClose, OnFailureAbort:
	default:
		errs = append(errs, fmt.Sprintf("BULKFORCE_ON_SUBMIT_FAILURE (%q) must be one of: leave, close, abort", c.OnSubmitFailure))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("BULKFORCE_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Passwords, tokens, secrets and the session id are masked.
func (c Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("APIVersion: %q, Host: %q, BaseDomain: %q, ", c.APIVersion, c.Host, c.BaseDomain))
	b.WriteString(fmt.Sprintf("Username: %q, Password: %s, SecurityToken: %s, ", c.Username, masked(c.Password), masked(c.SecurityToken)))
	b.WriteString(fmt.Sprintf("SessionID: %s, Instance: %q, ", masked(c.SessionID), c.Instance))
	b.WriteString(fmt.Sprintf("ClientID: %q, ClientSecret: %s, RefreshToken: %s, ", c.ClientID, masked(c.ClientSecret), masked(c.RefreshToken)))
	b.WriteString(fmt.Sprintf("Proxy: %q, ProxyUsername: %q, ProxyPassword: %s, ", c.Proxy, c.ProxyUsername, masked(c.ProxyPassword)))
	b.WriteString(fmt.Sprintf("Timeout: %s, PollInterval: %s, OnSubmitFailure: %q, LogLevel: %q",
		c.Timeout, c.PollInterval, c.OnSubmitFailure, c.LogLevel))
	b.WriteString("}")
	return b.String()
}

func masked(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
