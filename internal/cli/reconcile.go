package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

func addRepairFlags(cmd *cobra.Command, o *services.ReconcileOptions) {
	cmd.Flags().BoolVar(&o.RepairProfiles, "repair-profiles", false, "delete profiles, ledgers and subscriptions that have no identity")
	cmd.Flags().BoolVar(&o.RepairData, "repair-data", false, "delete dependent records whose owner has no identity")
}

func newReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var opts services.ReconcileOptions
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Backfill missing profiles and ledgers, then audit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withAdmin(cmd, func(ctx context.Context, _ *config.Config, ops services.Admin) error {
				report, err := ops.Reconcile(ctx, opts)
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return emit(f, "reconcile", report, err, printReconcile)
			})
		},
	}
	addRepairFlags(cmd, &opts)
	return cmd
}

func newAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var opts services.ReconcileOptions
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report identities, profiles and data that disagree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withAdmin(cmd, func(ctx context.Context, _ *config.Config, ops services.Admin) error {
				report, err := ops.Audit(ctx, opts)
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return emit(f, "audit", report, err, printAudit)
			})
		},
	}
	addRepairFlags(cmd, &opts)
	return cmd
}

func printReconcile(w io.Writer, r *services.ReconciliationReport) {
	fmt.Fprintf(w, "run %s\n", r.RunID)
	fmt.Fprintf(w, "identities: %d  profiles: %d\n", r.TotalIdentities, r.TotalProfiles)
	fmt.Fprintf(w, "synced: %d  already existed: %d  updated: %d  ledgers created: %d  errors: %d\n",
		r.Synced, r.AlreadyExists, r.Updated, r.LedgersCreated, r.Errors)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s (%s): %s\n", f.UID, f.Op, f.Error)
	}
	printInconsistencies(w, r.Inconsistencies)
	printRepairs(w, r.Repairs)
}

func printAudit(w io.Writer, r *services.AuditReport) {
	fmt.Fprintf(w, "run %s\n", r.RunID)
	fmt.Fprintf(w, "identities: %d  profiles: %d\n", r.TotalIdentities, r.TotalProfiles)
	printInconsistencies(w, r.Inconsistencies)
	printRepairs(w, r.Repairs)
}

func printInconsistencies(w io.Writer, in services.Inconsistencies) {
	fmt.Fprintf(w, "identity without profile: %d\n", len(in.IdentityWithoutProfile))
	for _, uid := range in.IdentityWithoutProfile {
		fmt.Fprintf(w, "  %s\n", uid)
	}
	fmt.Fprintf(w, "profile without identity: %d\n", len(in.ProfileWithoutIdentity))
	for _, uid := range in.ProfileWithoutIdentity {
		fmt.Fprintf(w, "  %s\n", uid)
	}
	fmt.Fprintf(w, "data without identity: %d\n", len(in.DataWithoutIdentity))
	for _, d := range in.DataWithoutIdentity {
		fmt.Fprintf(w, "  %s/%s owner=%s\n", d.Collection, d.ID, d.OwnerUID)
	}
}

func printRepairs(w io.Writer, r *services.RepairSummary) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "repairs: profiles deleted: %d\n", r.ProfilesDeleted)
	for coll, n := range r.DependentsDeleted {
		fmt.Fprintf(w, "  %s deleted: %d\n", coll, n)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s (%s): %s\n", f.UID, f.Op, f.Error)
	}
}
