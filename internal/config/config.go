// Package config handles configuration for the gophmedia tools, including
// defaults, a JSON overlay and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/gophmedia/internal/flagx"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: attachment metadata store ("sqlite" or "postgres").
//   - BlobBackend: where encrypted blobs live ("fs", "s3" or "badger").
//   - BlobDir: root directory for the fs and badger backends.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     S3-compatible object storage settings.
//   - KeySalt: salt for deriving the master secret from the passphrase.
//   - Passphrase: optional; prompted for on the terminal when empty.
//   - ThumbnailMaxSize / ThumbnailQuality: bounds and JPEG quality of thumbnails.
//   - Workers: number of concurrent thumbnail generations.
//   - GenerationTimeout: per-generation deadline; zero disables it.
//   - LogFormat: "slog" (JSON) or "zap".
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DatabaseDriver    string
	DatabaseDSN       string
	BlobBackend       string
	BlobDir           string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	KeySalt           string
	Passphrase        string
	ThumbnailMaxSize  int
	ThumbnailQuality  int
	Workers           int
	GenerationTimeout time.Duration
	LogFormat         string
	LogLevel          string
}

// LoadDefaults populates Config with development defaults.
// NOTE: KeySalt and the S3 credentials must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "gophmedia.db"
	c.BlobBackend = "fs"
	c.BlobDir = "blobs"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "attachments"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.KeySalt = "gophmedia-dev-salt"
	c.ThumbnailMaxSize = 300
	c.ThumbnailQuality = 85
	c.Workers = 4
	c.GenerationTimeout = 30 * time.Second
	c.LogFormat = "slog"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults overlaid with the JSON file named
// by -c/-config in args. Command-line flags are applied afterwards by
// BindFlags, so they take precedence over both.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, flagx.JsonConfigFlags(args)); err != nil {
		return nil, err
	}
	return cfg, nil
}
