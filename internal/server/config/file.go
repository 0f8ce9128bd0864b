package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophledger/internal/flagx"
	"github.com/dmitrijs2005/gophledger/internal/timex"
)

// FileConfig mirrors Config for JSON and YAML files. Durations use
// timex.Duration so both "5s" and integer nanoseconds are accepted.
// Zero values leave Config unchanged; FreeUnitsSeed is a pointer so an
// explicit 0 is honored.
type FileConfig struct {
	AdminHTTPAddr              string         `json:"admin_http_addr" yaml:"admin_http_addr"`
	EndpointAddrGRPC           string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                  string         `json:"secret_key" yaml:"secret_key"`
	AdminTokenValidityDuration timex.Duration `json:"admin_token_validity_duration" yaml:"admin_token_validity_duration"`
	IdentityPageSize           int            `json:"identity_page_size" yaml:"identity_page_size"`
	WriteConcurrency           int            `json:"write_concurrency" yaml:"write_concurrency"`
	FreeUnitsSeed              *int           `json:"free_units_seed" yaml:"free_units_seed"`
	DependentCollections       []string       `json:"dependent_collections" yaml:"dependent_collections"`
	OwnerField                 string         `json:"owner_field" yaml:"owner_field"`
	S3RootUser                 string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword             string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                   string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                   string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint             string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogBackend                 string         `json:"log_backend" yaml:"log_backend"`
	LogLevel                   string         `json:"log_level" yaml:"log_level"`
	LogFile                    string         `json:"log_file" yaml:"log_file"`
	ShutdownTimeout            timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile loads the file named by -c/-config, if any.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}
	return loadFile(config, path)
}

// loadFile decodes path as YAML when it ends in .yaml or .yml, otherwise
// as JSON, and overlays the values that are set.
func loadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	overlay(&config.AdminHTTPAddr, c.AdminHTTPAddr)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	if c.AdminTokenValidityDuration.Duration > 0 {
		config.AdminTokenValidityDuration = c.AdminTokenValidityDuration.Duration
	}
	if c.IdentityPageSize > 0 {
		config.IdentityPageSize = c.IdentityPageSize
	}
	if c.WriteConcurrency > 0 {
		config.WriteConcurrency = c.WriteConcurrency
	}
	if c.FreeUnitsSeed != nil {
		config.FreeUnitsSeed = *c.FreeUnitsSeed
	}
	if c.DependentCollections != nil {
		config.DependentCollections = c.DependentCollections
	}
	overlay(&config.OwnerField, c.OwnerField)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.LogBackend, c.LogBackend)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.LogFile, c.LogFile)
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
