package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// parseEnv overlays settings from environment variables. A .env file in
// the working directory is loaded first if present; variables already set
// in the environment win over it. Malformed numeric values are ignored.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.AdminHTTPAddr, "ADMIN_HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setInt(&config.IdentityPageSize, "IDENTITY_PAGE_SIZE")
	setInt(&config.WriteConcurrency, "WRITE_CONCURRENCY")
	setInt(&config.FreeUnitsSeed, "FREE_UNITS_SEED")
	if v, ok := os.LookupEnv("DEPENDENT_COLLECTIONS"); ok {
		config.DependentCollections = splitList(v)
	}
	setString(&config.OwnerField, "OWNER_FIELD")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.LogBackend, "LOG_BACKEND")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFile, "LOG_FILE")
	if v := os.Getenv("LOG_DEV"); v != "" {
		config.LogDev = v == "1" || strings.EqualFold(v, "true")
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
