package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophledger/internal/flagx"
)

// parseFlags overlays Config fields from short command-line flags:
//
//	-h string   admin HTTP bind address
//	-a string   gRPC bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      admin token validity, minutes
//	-n int      identity page size
//	-w int      per-uid write concurrency
//	-f int      free units seed for new profiles
//	-l string   dependent collections, comma separated
//	-o string   owner field on dependent records
//	-u -p -b -g -e   S3 user, password, bucket, region, base endpoint
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and other
// layers do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-h", "-a", "-d", "-s", "-t", "-n", "-w", "-f", "-l", "-o", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.AdminHTTPAddr, "h", config.AdminHTTPAddr, "admin HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.AdminTokenValidityDuration.Minutes()), "admin token validity (in minutes)")

	fs.IntVar(&config.IdentityPageSize, "n", config.IdentityPageSize, "identity page size")
	fs.IntVar(&config.WriteConcurrency, "w", config.WriteConcurrency, "write concurrency")
	fs.IntVar(&config.FreeUnitsSeed, "f", config.FreeUnitsSeed, "free units seed")
	collections := fs.String("l", strings.Join(config.DependentCollections, ","), "dependent collections")
	fs.StringVar(&config.OwnerField, "o", config.OwnerField, "owner field")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket, empty disables object cleanup")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AdminTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.DependentCollections = splitList(*collections)
}
