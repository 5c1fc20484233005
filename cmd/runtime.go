// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"bulkforce/cli/internal/auth"
	"bulkforce/cli/internal/bulk"
	"bulkforce/cli/internal/config"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/httperrors"
	"bulkforce/cli/internal/keychain"
	"bulkforce/cli/internal/logging"
)

// loadConfig reads the environment and fills missing credentials from the
// login stored in the keychain. A keychain that cannot be opened only
// disables the stored login.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	km, err := keychain.GetManager()
	if err != nil {
		logger.Debug("keychain unavailable, stored login ignored", zap.Error(err))
		return cfg, nil
	}

	applied, err := auth.NewService(nil, km, logger).Apply(cfg)
	if err != nil {
		logger.Debug("stored login not applied", zap.Error(err))
		return cfg, nil
	}
	logger.Debug("configuration loaded", zap.Stringer("config", applied))
	return applied, nil
}

// openClient loads the configuration and connects a bulk client.
func openClient(ctx context.Context) (*bulk.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bulk.Open(ctx, cfg, logger)
}

// reportError prints err with the presentation that fits its kind.
func reportError(err error) {
	switch bferrors.KindOf(err) {
	case bferrors.Transport:
		_ = httperrors.FormatNetworkError(err, "talking to Salesforce")
	case bferrors.SoapFault, bferrors.OAuth, bferrors.ServiceFault:
		logging.PresentFault(err)
	default:
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
	}
	logger.Debug("command failed", zap.String("error", logging.Mask(err.Error())))
}
