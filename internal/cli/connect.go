package cli

import (
	"context"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server"
	"github.com/dmitrijs2005/gophledger/internal/server/auth"
	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/services"

	gs "github.com/dmitrijs2005/gophledger/internal/server/grpc"
)

// connect dials the admin service when --server is set, otherwise opens
// the database and builds the services in process.
func connect(ctx context.Context, opts *RootOptions, cfg *config.Config) (services.Admin, func() error, error) {
	if opts.Server != "" {
		token := opts.Token
		if token == "" {
			var err error
			token, err = auth.GenerateToken("gcli", []byte(cfg.SecretKey), cfg.AdminTokenValidityDuration)
			if err != nil {
				return nil, nil, err
			}
		}
		c, err := gs.NewAdminClient(opts.Server, token)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}

	level := cfg.LogLevel
	if !opts.Verbose {
		level = "warn"
	}
	logger, err := logging.New(logging.Options{Backend: cfg.LogBackend, Level: level, File: cfg.LogFile})
	if err != nil {
		return nil, nil, err
	}
	b, err := server.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return b.Suite, b.Close, nil
}
