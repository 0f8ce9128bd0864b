package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/auth"
)

func newTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.AdminTokenValidityDuration
			}
			if subject == "" || ttl <= 0 {
				return NewExitError(ExitCommandError, "subject must be set and ttl positive")
			}
			tok, err := auth.GenerateToken(subject, []byte(cfg.SecretKey), ttl)
			if err != nil {
				return WrapExitError(ExitFailure, "sign token", err)
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Result(map[string]string{"token": tok, "subject": subject, "expiresIn": ttl.String()}, nil, nil)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "ops", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "validity (default: configured admin token validity)")
	return cmd
}
