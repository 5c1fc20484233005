// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"bulkforce/cli/internal/auth"
	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
	"bulkforce/cli/internal/keychain"
	"bulkforce/cli/internal/terminal"
)

var (
	loginUsername string
	loginHost     string
)

// loginCmd authenticates against Salesforce once and stores the session in
// the OS keychain for later commands.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Salesforce and store the session",
	Long: `The login command performs a single credential exchange and stores the
resulting session id in the OS keychain. Credentials are taken from the
environment in this order:

  - SALESFORCE_SESSION_ID and SALESFORCE_INSTANCE (stored as is)
  - SALESFORCE_USERNAME and SALESFORCE_PASSWORD, with SALESFORCE_SECURITY_TOKEN appended
  - SALESFORCE_CLIENT_ID, SALESFORCE_CLIENT_SECRET and SALESFORCE_REFRESH_TOKEN

When only a username is known and stdin is a terminal, the password and
security token are prompted for without echo.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if loginUsername != "" {
			cfg.Username = loginUsername
		}
		if loginHost != "" {
			cfg.Host = loginHost
		}
		if cfg, err = promptCredentials(cfg); err != nil {
			return err
		}

		st, err := runLogin(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		who := st.Username
		if who == "" {
			who = st.OrgID
		}
		pterm.Success.Printf("Logged in as %s on %s (%s)\n", who, st.Instance, st.Method)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Salesforce username (overrides SALESFORCE_USERNAME)")
	loginCmd.Flags().StringVar(&loginHost, "host", "", "Login host, e.g. test.salesforce.com for sandboxes")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(ctx context.Context, cfg config.Config) (auth.State, error) {
	if !cfg.IsSalesforceHost() {
		pterm.Warning.Printf("Credentials will be sent to %s, which is not a salesforce.com host\n", cfg.Host)
	}

	tr, err := backend.NewTransport(backend.TransportOptions{
		Proxy:         cfg.Proxy,
		ProxyUsername: cfg.ProxyUsername,
		ProxyPassword: cfg.ProxyPassword,
		Timeout:       cfg.Timeout,
		Logger:        logger,
	})
	if err != nil {
		return auth.State{}, err
	}

	km, err := keychain.GetManager()
	if err != nil {
		return auth.State{}, err
	}

	stop := startSpinner("Logging in to " + cfg.Host)
	defer stop()
	return auth.NewService(backend.New(tr, cfg.BaseDomain), km, logger).Login(ctx, cfg)
}

// promptCredentials asks for the password and security token when a
// username is the only credential available.
func promptCredentials(cfg config.Config) (config.Config, error) {
	if cfg.HasSession() || cfg.HasPassword() || cfg.HasOAuth() || cfg.Username == "" {
		return cfg, nil
	}
	if !terminal.IsInteractive() {
		return cfg, nil
	}

	pw, err := terminal.ReadSecret(fmt.Sprintf("Password for %s: ", cfg.Username))
	if err != nil {
		return cfg, err
	}
	cfg.Password = pw

	if cfg.SecurityToken == "" {
		tok, err := terminal.ReadSecret("Security token (leave empty if not required): ")
		if err != nil {
			return cfg, err
		}
		cfg.SecurityToken = tok
	}
	return cfg, nil
}
