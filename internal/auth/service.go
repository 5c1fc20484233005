// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth keeps a Salesforce login between CLI invocations.
// Login runs exactly one credential exchange through the connection
// builder and stores the resulting session in the OS keychain; later
// commands reuse it through Apply.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
	"bulkforce/cli/internal/connection"
	"bulkforce/cli/internal/keychain"
	"bulkforce/cli/internal/logging"
)

// Service centralizes login state operations against the API and the keychain.
type Service struct {
	api backend.API
	km  *keychain.Manager
	log *zap.Logger
	now func() time.Time
}

// NewService constructs an auth Service.
func NewService(api backend.API, km *keychain.Manager, log *zap.Logger) *Service {
	return &Service{api: api, km: km, log: logging.OrNop(log), now: time.Now}
}

// Login authenticates with cfg and stores the session. When cfg already
// carries a session it is validated only by shape and stored as is.
func (s *Service) Login(ctx context.Context, cfg config.Config) (State, error) {
	conn, method, err := connection.Build(ctx, cfg, s.api, s.log)
	if err != nil {
		return State{}, err
	}

	sess := conn.Session()
	if err := s.km.SaveSession(sess.ID); err != nil {
		return State{}, err
	}
	if method == connection.MethodOAuth {
		if err := s.km.SaveRefreshToken(cfg.RefreshToken); err != nil {
			return State{}, err
		}
	}

	st := State{
		LoggedIn:   true,
		Username:   cfg.Username,
		Method:     string(method),
		Host:       cfg.Host,
		Instance:   sess.Instance,
		OrgID:      conn.OrgID(),
		APIVersion: cfg.APIVersion,
		LoggedInAt: s.now().UTC(),
	}
	if err := Save(s.km, st); err != nil {
		return State{}, err
	}
	s.log.Debug("login stored", zap.String("instance", st.Instance), zap.String("org_id", st.OrgID))
	return st, nil
}

// Apply fills cfg from the stored login. Credentials already present in
// cfg win; a stored refresh token is only used when cfg has none.
func (s *Service) Apply(cfg config.Config) (config.Config, error) {
	st, err := Load(s.km)
	if err != nil {
		return cfg, err
	}

	if !cfg.HasSession() && !cfg.HasPassword() && st.LoggedIn {
		id, err := s.km.LoadSession()
		switch {
		case err == nil:
			cfg.SessionID = id
			cfg.Instance = st.Instance
		case !errors.Is(err, keychain.ErrNotFound):
			return cfg, err
		}
	}

	if cfg.RefreshToken == "" {
		rt, err := s.km.LoadRefreshToken()
		switch {
		case err == nil:
			cfg.RefreshToken = rt
		case !errors.Is(err, keychain.ErrNotFound):
			return cfg, err
		}
	}
	return cfg, nil
}

// WhoAmI returns the stored login state.
func (s *Service) WhoAmI() (State, bool, error) {
	st, err := Load(s.km)
	if err != nil {
		return State{}, false, err
	}
	return st, st.LoggedIn, nil
}

// Logout clears the stored session, refresh token and state. The remote
// session is left to expire.
func (s *Service) Logout() error {
	return s.km.ClearAuth()
}
