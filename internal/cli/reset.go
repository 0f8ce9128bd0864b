package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

func newResetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		baseline int64
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "reset-entitlements",
		Short: "Reset every ledger to a baseline and drop subscriptions",
		Long: `Reset every ledger in the entitlements collection, including those of
deleted identities, to {unlimited: false, canEdit: false, unitsAvailable:
baseline}. Matching profiles go back to the free plan and subscriptions
are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withAdmin(cmd, func(ctx context.Context, cfg *config.Config, ops services.Admin) error {
				if !cmd.Flags().Changed("baseline") {
					baseline = int64(cfg.FreeUnitsSeed)
				}
				q := fmt.Sprintf("Reset ALL entitlements to %d units?", baseline)
				if err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), q, yes); err != nil {
					return err
				}
				report, err := ops.ResetAllEntitlements(ctx, baseline)
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return emit(f, "reset-entitlements", report, err, printReset)
			})
		},
	}
	cmd.Flags().Int64Var(&baseline, "baseline", 0, "units every ledger is reset to (default: configured free units seed)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printReset(w io.Writer, r *services.ResetReport) {
	fmt.Fprintf(w, "run %s\n", r.RunID)
	fmt.Fprintf(w, "baseline: %d  total: %d  succeeded: %d  failed: %d\n", r.Baseline, r.Total, r.Succeeded, r.Failed)

	uids := make([]string, 0, len(r.Outcomes))
	for uid, o := range r.Outcomes {
		if !o.OK {
			uids = append(uids, uid)
		}
	}
	slices.Sort(uids)
	for _, uid := range uids {
		fmt.Fprintf(w, "  failed %s: %s\n", uid, r.Outcomes[uid].Error)
	}
}
