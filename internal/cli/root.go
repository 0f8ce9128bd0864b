// Package cli implements gcli, the administrative command line for
// gophledger. Commands run against the stores directly, or against a
// running server when --server is given.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Server     string
	Token      string
	Format     string // "json" | "text"
	Verbose    bool

	// connect is replaced in tests.
	connect Connector
}

// Connector yields the admin operations and a release func.
type Connector func(ctx context.Context, opts *RootOptions, cfg *config.Config) (services.Admin, func() error, error)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the gcli root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{connect: connect})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gcli",
		Short: "gophledger admin CLI",
		Long: `Administrative operations for gophledger: reconcile identities with
profiles, audit, reset entitlements, delete users and inspect ledgers.

Reconcile and reset-entitlements take no lock. Do not run them at the
same time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (json or yaml)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "admin gRPC endpoint host:port; empty opens the stores directly")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "admin token for --server (default: minted from the configured secret)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newReconcileCommand(opts))
	cmd.AddCommand(newAuditCommand(opts))
	cmd.AddCommand(newResetCommand(opts))
	cmd.AddCommand(newDeleteUserCommand(opts))
	cmd.AddCommand(newEntitlementCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadClientConfig(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}

// withAdmin loads config, connects and runs fn.
func (o *RootOptions) withAdmin(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, ops services.Admin) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ops, release, err := o.connect(ctx, o, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connect", err)
	}
	defer func() { _ = release() }()
	return fn(ctx, cfg, ops)
}
