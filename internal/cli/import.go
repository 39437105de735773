package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"eventmigrate/backend/internal/importer"

	"github.com/spf13/cobra"
)

type importOptions struct {
	organizer string
	apiKey    string
	eventIDs  []int64
	all       bool
	vouchers  bool
	orders    bool
}

func newImportCmd(deps Deps) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import events into an organizer",
		Long: `Imports the given source events into the organizer, creating it when
needed. Each event is written in its own transaction; the first failing
event stops the run.

Examples:
  eventmigrate import --organizer acme --event 1234 --event 1235
  eventmigrate import --organizer acme --all --vouchers --orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, deps, opts)
		},
	}
	cmd.Flags().StringVar(&opts.organizer, "organizer", "", "Target organizer slug")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("SOURCE_API_KEY"), "Source API key (defaults to SOURCE_API_KEY)")
	cmd.Flags().Int64SliceVar(&opts.eventIDs, "event", nil, "Source event id (repeatable)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Import every event visible to the API key")
	cmd.Flags().BoolVar(&opts.vouchers, "vouchers", false, "Import vouchers")
	cmd.Flags().BoolVar(&opts.orders, "orders", false, "Import orders")
	_ = cmd.MarkFlagRequired("organizer")
	cmd.MarkFlagsMutuallyExclusive("event", "all")
	return cmd
}

func runImport(cmd *cobra.Command, deps Deps, opts importOptions) error {
	ctx := cmd.Context()
	opts.organizer = strings.TrimSpace(opts.organizer)
	opts.apiKey = strings.TrimSpace(opts.apiKey)
	if opts.apiKey == "" {
		return fmt.Errorf("--api-key or SOURCE_API_KEY is required")
	}

	eventIDs := opts.eventIDs
	if opts.all {
		accounts, err := deps.Accounts(opts.apiKey)
		if err != nil {
			return err
		}
		eventIDs, err = accounts.FindEventIDs(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
	}
	if len(eventIDs) == 0 {
		return fmt.Errorf("no events to import: pass --event or --all")
	}

	imp, closeFn, err := deps.Importer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	slugs, err := imp.ImportEvents(ctx, importer.Request{
		Organizer:    opts.organizer,
		APIKey:       opts.apiKey,
		EventIDs:     eventIDs,
		WithVouchers: opts.vouchers,
		WithOrders:   opts.orders,
	})
	if err != nil {
		var eventErr *importer.EventImportError
		if errors.As(err, &eventErr) {
			printf(cmd.ErrOrStderr(), "event %d failed\n", eventErr.EventID)
		}
		return err
	}
	for i, slug := range slugs {
		printf(cmd.OutOrStdout(), "%d\t%s\n", eventIDs[i], slug)
	}
	return nil
}
