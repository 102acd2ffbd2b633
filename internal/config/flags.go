package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers flags for every Config field on fs, using the current
// values (defaults plus JSON overlay) as flag defaults. Flags parsed later
// therefore win over the file.
//
//	-c, --config string        path to JSON config file
//	-D, --db-driver string     sqlite | postgres
//	-d, --db-dsn string        database DSN
//	-B, --blob-backend string  fs | s3 | badger
//	    --blob-dir string      blob directory (fs, badger)
//	-u, --s3-user string       S3 root user
//	-p, --s3-password string   S3 root password
//	-b, --s3-bucket string     S3 bucket
//	-g, --s3-region string     S3 region
//	-e, --s3-endpoint string   S3 base endpoint
//	    --key-salt string      master key salt
//	    --thumb-size int       thumbnail bound in pixels
//	    --thumb-quality int    thumbnail JPEG quality
//	-w, --workers int          concurrent generations
//	-t, --gen-timeout duration per-generation deadline
//	    --log-format string    slog | zap
func BindFlags(fs *pflag.FlagSet, c *Config) {
	// registered so cobra accepts it; the value itself is read by LoadConfig
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVarP(&c.DatabaseDriver, "db-driver", "D", c.DatabaseDriver, "metadata database driver (sqlite|postgres)")
	fs.StringVarP(&c.DatabaseDSN, "db-dsn", "d", c.DatabaseDSN, "database DSN")
	fs.StringVarP(&c.BlobBackend, "blob-backend", "B", c.BlobBackend, "blob backend (fs|s3|badger)")
	fs.StringVar(&c.BlobDir, "blob-dir", c.BlobDir, "blob directory for fs and badger backends")

	fs.StringVarP(&c.S3RootUser, "s3-user", "u", c.S3RootUser, "S3 root user")
	fs.StringVarP(&c.S3RootPassword, "s3-password", "p", c.S3RootPassword, "S3 root password")
	fs.StringVarP(&c.S3Bucket, "s3-bucket", "b", c.S3Bucket, "S3 bucket")
	fs.StringVarP(&c.S3Region, "s3-region", "g", c.S3Region, "S3 region")
	fs.StringVarP(&c.S3BaseEndpoint, "s3-endpoint", "e", c.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&c.KeySalt, "key-salt", c.KeySalt, "salt for master key derivation")
	fs.IntVar(&c.ThumbnailMaxSize, "thumb-size", c.ThumbnailMaxSize, "thumbnail max width/height in pixels")
	fs.IntVar(&c.ThumbnailQuality, "thumb-quality", c.ThumbnailQuality, "thumbnail JPEG quality (1-100)")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "concurrent thumbnail generations")
	fs.DurationVarP(&c.GenerationTimeout, "gen-timeout", "t", c.GenerationTimeout, "per-generation timeout (0 disables)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log backend (slog|zap)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug|info|warn|error)")
}
