// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"time"

	"bulkforce/cli/internal/keychain"
)

// State is the non-secret part of a stored login. The session id and the
// refresh token are kept as separate keychain items.
type State struct {
	LoggedIn   bool      `json:"logged_in"`
	Username   string    `json:"username,omitempty"`
	Method     string    `json:"method"`
	Host       string    `json:"host"`
	Instance   string    `json:"instance"`
	OrgID      string    `json:"org_id"`
	APIVersion string    `json:"api_version"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Load reads the auth state. Missing state yields the zero value.
func Load(km *keychain.Manager) (State, error) {
	var s State
	data, err := km.LoadAuthState()
	if err != nil || len(data) == 0 {
		return s, err
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

// Save writes the auth state.
func Save(km *keychain.Manager, s State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return km.SaveAuthState(b)
}
