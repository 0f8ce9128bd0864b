package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/models"
	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

func newEntitlementCommand(rootOpts *RootOptions) *cobra.Command {
	var consume bool
	cmd := &cobra.Command{
		Use:   "entitlement <uid>",
		Short: "Show a user's ledger and access decision, or consume a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := args[0]
			return rootOpts.withAdmin(cmd, func(ctx context.Context, _ *config.Config, ops services.Admin) error {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				if consume {
					res, err := ops.ConsumeUnit(ctx, uid)
					if err != nil {
						return emit[services.ConsumeResult](f, "consume", nil, err, nil)
					}
					return emit(f, "consume", &res, nil, printConsume)
				}
				decision, err := ops.Check(ctx, uid)
				if err != nil {
					return emit[services.AccessDecision](f, "entitlement", nil, err, nil)
				}
				return emit(f, "entitlement", &decision, nil, printDecision)
			})
		},
	}
	cmd.Flags().BoolVar(&consume, "consume", false, "consume one unit")
	return cmd
}

func printLedger(w io.Writer, l models.EntitlementLedger) {
	fmt.Fprintf(w, "units available: %d  unlimited: %t  can edit: %t\n", l.UnitsAvailable, l.Unlimited, l.CanEdit)
}

func printDecision(w io.Writer, d *services.AccessDecision) {
	fmt.Fprintf(w, "%s allowed: %t\n", d.UID, d.Allowed)
	printLedger(w, d.Ledger)
}

func printConsume(w io.Writer, r *services.ConsumeResult) {
	if r.OK {
		fmt.Fprintln(w, "unit consumed")
	} else {
		fmt.Fprintln(w, "no units available")
	}
	printLedger(w, r.Ledger)
}
