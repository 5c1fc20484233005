// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// securityBackend stores items through the macOS security command.
// The account is always ServiceName and the key is the service.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{}, nil
}

func (s *securityBackend) Set(key, value string) error {
	_ = s.Delete(key)
	if _, stderr, err := security("add-generic-password", "-a", ServiceName, "-s", key, "-w", value, "-U"); err != nil {
		return fmt.Errorf("failed to store '%s' in keychain: %s: %w", key, stderr, err)
	}
	return nil
}

func (s *securityBackend) Get(key string) (string, error) {
	stdout, stderr, err := security("find-generic-password", "-a", ServiceName, "-s", key, "-w")
	if err != nil {
		if notFound(stderr) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve '%s' from keychain: %s: %w", key, stderr, err)
	}
	return strings.TrimSpace(stdout), nil
}

func (s *securityBackend) Delete(key string) error {
	if _, stderr, err := security("delete-generic-password", "-a", ServiceName, "-s", key); err != nil && !notFound(stderr) {
		return fmt.Errorf("failed to delete '%s' from keychain: %s: %w", key, stderr, err)
	}
	return nil
}

func security(args ...string) (stdout, stderr string, err error) {
	var out, errBuf bytes.Buffer
	cmd := exec.Command("security", args...)
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return out.String(), errBuf.String(), err
}

func notFound(stderr string) bool {
	return strings.Contains(stderr, "could not be found")
}
