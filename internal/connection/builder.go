// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connection

import (
	"context"

	"go.uber.org/zap"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/logging"
)

// Method names the credential path a connection was built with.
type Method string

const (
	MethodSession  Method = "session"
	MethodPassword Method = "password"
	MethodOAuth    Method = "oauth"
)

// Build returns a connection for cfg. The first complete credential set
// wins: an existing session and instance, then username and password
// (with the security token appended), then client id, secret and refresh
// token. Exactly one exchange is performed, and none for a session.
func Build(ctx context.Context, cfg config.Config, api backend.API, log *zap.Logger) (*Connection, Method, error) {
	log = logging.OrNop(log)

	session := backend.Session{APIVersion: cfg.APIVersion, BaseDomain: cfg.BaseDomain}

	switch {
	case cfg.HasSession():
		session.ID = cfg.SessionID
		session.Instance = cfg.Instance
		log.Debug("reusing session", zap.String("instance", cfg.Instance))
		return New(api, session, log), MethodSession, nil

	case cfg.HasPassword():
		res, err := api.Login(ctx, cfg.Host, cfg.Username, cfg.Password+cfg.SecurityToken, cfg.APIVersion)
		if err != nil {
			return nil, "", err
		}
		session.ID = res.SessionID
		session.Instance = res.Instance
		log.Info("logged in", zap.String("method", string(MethodPassword)), zap.String("instance", res.Instance), zap.String("user_id", res.UserID))
		return New(api, session, log), MethodPassword, nil

	case cfg.HasOAuth():
		res, err := api.OAuthLogin(ctx, cfg.Host, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
		if err != nil {
			return nil, "", err
		}
		session.ID = res.SessionID
		session.Instance = res.Instance
		log.Info("logged in", zap.String("method", string(MethodOAuth)), zap.String("instance", res.Instance))
		return New(api, session, log), MethodOAuth, nil

	default:
		return nil, "", bferrors.New(bferrors.Config,
			"no usable credentials: set session_id and instance, username and password, or client_id, client_secret and refresh_token")
	}
}

// Open builds the HTTPS transport and API client described by cfg and
// then calls Build.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Connection, Method, error) {
	tr, err := backend.NewTransport(backend.TransportOptions{
		Proxy:         cfg.Proxy,
		ProxyUsername: cfg.ProxyUsername,
		ProxyPassword: cfg.ProxyPassword,
		Timeout:       cfg.Timeout,
		Logger:        log,
	})
	if err != nil {
		return nil, "", err
	}
	return Build(ctx, cfg, backend.New(tr, cfg.BaseDomain), log)
}
