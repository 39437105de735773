package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEventsCmd(deps Deps) *cobra.Command {
	var apiKey, email string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the source events of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey = strings.TrimSpace(apiKey)
			if apiKey == "" {
				return fmt.Errorf("--api-key or SOURCE_API_KEY is required")
			}
			accounts, err := deps.Accounts(apiKey)
			if err != nil {
				return err
			}
			userID, err := accounts.FindUserID(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("find account %s: %w", email, err)
			}
			events, err := accounts.UserEvents(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(w, "ID\tIDENTIFIER\tDATE\tSTATUS\tTITLE\n")
			for _, e := range events {
				printf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Identifier, e.SelectedDate, e.Status, e.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("SOURCE_API_KEY"), "Source API key (defaults to SOURCE_API_KEY)")
	cmd.Flags().StringVar(&email, "email", "", "Login e-mail of the source account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
