package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathJSON := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"admin_http_addr":               ":9999",
		"endpoint_addr_grpc":            "www.example:9000",
		"database_dsn":                  "postgres://ledger",
		"secret_key":                    "my_secret_key",
		"admin_token_validity_duration": "30m",
		"identity_page_size":            50,
		"write_concurrency":             2,
		"free_units_seed":               3,
		"dependent_collections":         []string{"specs"},
		"owner_field":                   "ownerUid",
		"s3_bucket":                     "bucket",
		"log_backend":                   "zap",
		"shutdown_timeout":              "10s",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathJSON}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, ":9999", cfg.AdminHTTPAddr)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://ledger", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 30*time.Minute, cfg.AdminTokenValidityDuration)
		assert.Equal(t, 50, cfg.IdentityPageSize)
		assert.Equal(t, 2, cfg.WriteConcurrency)
		assert.Equal(t, 3, cfg.FreeUnitsSeed)
		assert.Equal(t, []string{"specs"}, cfg.DependentCollections)
		assert.Equal(t, "ownerUid", cfg.OwnerField)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "us-east-1", cfg.S3Region, "absent keys keep defaults")
	})

	t.Run("loads from yaml", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.yml")
		require.NoError(t, os.WriteFile(path, []byte(
			"secret_key: yaml_key\nshutdown_timeout: 2s\ndependent_collections:\n  - apps\n  - userTools\n"), 0o600))
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "yaml_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, []string{"apps", "userTools"}, cfg.DependentCollections)
		assert.Equal(t, 1, cfg.FreeUnitsSeed)
	})

	t.Run("no config flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{SecretKey: "key", WriteConcurrency: 5}
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 5, cfg.WriteConcurrency)
	})

	t.Run("invalid JSON fails", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Error(t, parseFile(&Config{}))
		require.Panics(t, func() { LoadConfig() })
	})
}
