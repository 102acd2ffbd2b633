// Package app assembles the gophmedia components from a Config: logger,
// metadata database, blob backend, key material, attachment service and
// thumbnail coordinator.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophmedia/internal/blobstore"
	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/config"
	"github.com/dmitrijs2005/gophmedia/internal/cryptox"
	"github.com/dmitrijs2005/gophmedia/internal/imaging"
	"github.com/dmitrijs2005/gophmedia/internal/logging"
	"github.com/dmitrijs2005/gophmedia/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophmedia/internal/services"
	"github.com/dmitrijs2005/gophmedia/internal/thumbnail"
	"github.com/dmitrijs2005/gophmedia/internal/transfer"
	"golang.org/x/term"
)

// PassphraseEnv is consulted when the config carries no passphrase.
const PassphraseEnv = "GOPHMEDIA_PASSPHRASE"

// Seams for testing.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	newS3Store   = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) {
		return blobstore.NewS3Store(ctx, c)
	}
)

type App struct {
	Config      *config.Config
	Logger      logging.Logger
	DB          *sql.DB
	Attachments *services.AttachmentService
	Thumbnails  *thumbnail.Coordinator

	keys    *cryptox.HKDFKeyProvider
	pool    *thumbnail.Pool
	closers []func() error
}

// Option adjusts App construction.
type Option func(*options)

type options struct {
	logger   logging.Logger
	observer transfer.Observer
	prompt   io.Writer
}

// WithLogger replaces the logger built from Config.LogFormat and LogLevel.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver reports byte progress of blob transfers.
func WithObserver(obs transfer.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithPrompt sets where the passphrase prompt is written (stderr by default).
func WithPrompt(w io.Writer) Option {
	return func(o *options) { o.prompt = w }
}

// New opens every backend named by c and runs the schema migrations.
// On error everything opened so far is closed again.
func New(ctx context.Context, c *config.Config, opts ...Option) (_ *App, err error) {
	o := &options{prompt: os.Stderr}
	for _, fn := range opts {
		fn(o)
	}

	app := &App{Config: c, Logger: o.logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if app.Logger == nil {
		l, err := logging.New(logging.Options{Format: c.LogFormat, Level: c.LogLevel})
		if err != nil {
			return nil, err
		}
		app.Logger = l
		if z, ok := l.(*logging.ZapLogger); ok {
			app.closers = append(app.closers, func() error { _ = z.Sync(); return nil })
		}
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.DB = db
	app.closers = append(app.closers, db.Close)

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	blobs, err := app.openBlobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("blob backend: %w", err)
	}

	pass, err := passphrase(c, o.prompt)
	if err != nil {
		return nil, err
	}
	master := cryptox.DeriveMasterKey(pass, []byte(c.KeySalt))
	common.WipeByteArray(pass)
	app.keys = cryptox.NewHKDFKeyProvider(master)
	common.WipeByteArray(master)

	svcOpts := []services.Option{}
	if o.observer != nil {
		svcOpts = append(svcOpts, services.WithObserver(o.observer))
	}
	app.Attachments = services.NewAttachmentService(db, rm, blobs, app.keys, app.Logger, svcOpts...)

	app.pool = thumbnail.NewPool(c.Workers)
	app.Thumbnails = thumbnail.New(
		app.Attachments,
		imaging.New(c.ThumbnailMaxSize, c.ThumbnailQuality),
		app.pool,
		app.Logger,
		thumbnail.WithGenerationTimeout(c.GenerationTimeout),
	)

	app.Logger.Debug(ctx, "app initialized",
		"db_driver", c.DatabaseDriver,
		"blob_backend", c.BlobBackend,
		"workers", c.Workers,
	)
	return app, nil
}

func (app *App) openBlobs(ctx context.Context) (blobstore.Store, error) {
	c := app.Config
	switch c.BlobBackend {
	case blobstore.BackendFS:
		return blobstore.NewFSStore(c.BlobDir)
	case blobstore.BackendBadger:
		s, err := blobstore.NewBadgerStore(c.BlobDir)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s.Close)
		return s, nil
	case blobstore.BackendS3:
		return newS3Store(ctx, blobstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

var ErrNoPassphrase = errors.New("no passphrase: set it in the config, in " + PassphraseEnv + " or run on a terminal")

// passphrase returns the configured passphrase, or prompts for one when
// stdin is a terminal. The caller wipes the result.
func passphrase(c *config.Config, prompt io.Writer) ([]byte, error) {
	if c.Passphrase != "" {
		return []byte(c.Passphrase), nil
	}
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return nil, ErrNoPassphrase
	}
	if _, err := fmt.Fprint(prompt, "Enter passphrase: "); err != nil {
		return nil, err
	}
	p, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, ErrNoPassphrase
	}
	return p, nil
}

// Close stops the worker pool, wipes key material and closes every backend
// in reverse order of opening.
func (app *App) Close() error {
	if app.pool != nil {
		app.pool.Close()
	}
	if app.keys != nil {
		app.keys.Wipe()
	}

	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// SignalContext returns a context canceled on SIGINT, SIGTERM or SIGQUIT.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}
