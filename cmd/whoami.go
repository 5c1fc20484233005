package cmd

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"bulkforce/cli/internal/auth"
	"bulkforce/cli/internal/keychain"
)

// whoamiCmd shows the stored login without contacting Salesforce.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored Salesforce login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}

		st, ok, err := auth.NewService(nil, km, logger).WhoAmI()
		if err != nil || !ok {
			fmt.Println("🔒 You're not logged in yet!")
			fmt.Println("   Run 'bulkforce login' to get started.")
			return nil
		}

		return pterm.DefaultTable.WithData(whoamiRows(st)).Render()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func whoamiRows(st auth.State) pterm.TableData {
	user := st.Username
	if user == "" {
		user = "-"
	}
	return pterm.TableData{
		{"User", user},
		{"Org", st.OrgID},
		{"Instance", st.Instance},
		{"Method", st.Method},
		{"Host", st.Host},
		{"API", st.APIVersion},
		{"Since", st.LoggedInAt.Local().Format(time.RFC1123)},
	}
}
