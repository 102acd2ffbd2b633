package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophmedia/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Zero values are
// treated as "not set" and leave the current value in place, so a file may
// carry only the keys it wants to override.
type JsonConfig struct {
	DatabaseDriver    string         `json:"database_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	BlobBackend       string         `json:"blob_backend"`
	BlobDir           string         `json:"blob_dir"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	KeySalt           string         `json:"key_salt"`
	Passphrase        string         `json:"passphrase"`
	ThumbnailMaxSize  int            `json:"thumbnail_max_size"`
	ThumbnailQuality  int            `json:"thumbnail_quality"`
	Workers           int            `json:"workers"`
	GenerationTimeout timex.Duration `json:"generation_timeout"`
	LogFormat         string         `json:"log_format"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays values from the JSON file at path onto config.
// An empty path means no file was requested.
func parseJson(config *Config, path string) error {

	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.BlobDir, c.BlobDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.KeySalt, c.KeySalt)
	setString(&config.Passphrase, c.Passphrase)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.ThumbnailMaxSize > 0 {
		config.ThumbnailMaxSize = c.ThumbnailMaxSize
	}
	if c.ThumbnailQuality > 0 {
		config.ThumbnailQuality = c.ThumbnailQuality
	}
	if c.Workers > 0 {
		config.Workers = c.Workers
	}
	if c.GenerationTimeout.Duration > 0 {
		config.GenerationTimeout = c.GenerationTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
