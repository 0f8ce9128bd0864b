package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

func newDeleteUserCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-user <uid>",
		Short: "Delete a user's identity and every record they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := args[0]
			return rootOpts.withAdmin(cmd, func(ctx context.Context, _ *config.Config, ops services.Admin) error {
				if err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete user %s and all their data?", uid), yes); err != nil {
					return err
				}
				res, err := ops.DeleteUser(ctx, uid)
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return emit(f, "delete-user", res, err, printDelete)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printDelete(w io.Writer, r *services.DeleteResult) {
	fmt.Fprintf(w, "run %s\n", r.RunID)
	if r.IdentityAlreadyAbsent {
		fmt.Fprintf(w, "identity %s was already absent\n", r.UID)
	} else {
		fmt.Fprintf(w, "identity %s deleted\n", r.UID)
	}
	for _, coll := range slices.Sorted(maps.Keys(r.Deleted)) {
		fmt.Fprintf(w, "  %s: %d\n", coll, r.Deleted[coll])
	}
	if len(r.Residue) > 0 {
		fmt.Fprintf(w, "residue: %s\n", strings.Join(r.Residue, ", "))
	}
}
