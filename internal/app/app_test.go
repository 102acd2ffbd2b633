package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/dmitrijs2005/gophmedia/internal/blobstore"
	"github.com/dmitrijs2005/gophmedia/internal/config"
	"github.com/dmitrijs2005/gophmedia/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = ":memory:"
	c.BlobDir = t.TempDir()
	c.Passphrase = "correct horse"
	c.Workers = 2
	return c
}

func TestNew_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), WithLogger(logging.Nop()))
	require.NoError(t, err)
	defer a.Close()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 640, 480))))

	att, err := a.Attachments.Import(ctx, "image/png", &buf)
	require.NoError(t, err)

	rc, err := a.Thumbnails.Thumbnail(ctx, att.ID)
	require.NoError(t, err)
	defer rc.Close()
	thumb, err := io.ReadAll(rc)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 225, cfg.Height)
}

func TestNew_BadgerBackend(t *testing.T) {
	c := testConfig(t)
	c.BlobBackend = blobstore.BackendBadger

	a, err := New(context.Background(), c, WithLogger(logging.Nop()))
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNew_S3BackendUsesConfig(t *testing.T) {
	c := testConfig(t)
	c.BlobBackend = blobstore.BackendS3

	var got blobstore.S3Config
	orig := newS3Store
	newS3Store = func(ctx context.Context, sc blobstore.S3Config) (blobstore.Store, error) {
		got = sc
		return blobstore.NewFSStore(t.TempDir())
	}
	defer func() { newS3Store = orig }()

	a, err := New(context.Background(), c, WithLogger(logging.Nop()))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, blobstore.S3Config{
		Bucket:       "attachments",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
		AccessKey:    "admin",
		SecretKey:    "secretpassword",
	}, got)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"db driver", func(c *config.Config) { c.DatabaseDriver = "mysql" }, "db init error"},
		{"blob backend", func(c *config.Config) { c.BlobBackend = "tape" }, "unknown blob backend"},
		{"log format", func(c *config.Config) { c.LogFormat = "logrus" }, "unknown log format"},
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.mutate(c)
			_, err := New(context.Background(), c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPassphrase(t *testing.T) {
	origRead, origTerm := readPassword, isTerminal
	defer func() { readPassword, isTerminal = origRead, origTerm }()

	c := &config.Config{Passphrase: "from-config"}
	p, err := passphrase(c, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "from-config", string(p))

	c.Passphrase = ""
	t.Setenv(PassphraseEnv, "from-env")
	p, err = passphrase(c, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "from-env", string(p))

	t.Setenv(PassphraseEnv, "")
	isTerminal = func(int) bool { return false }
	_, err = passphrase(c, io.Discard)
	require.ErrorIs(t, err, ErrNoPassphrase)

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }
	var prompt bytes.Buffer
	p, err = passphrase(c, &prompt)
	require.NoError(t, err)
	assert.Equal(t, "typed", string(p))
	assert.Contains(t, prompt.String(), "Enter passphrase: ")

	readPassword = func(int) ([]byte, error) { return nil, nil }
	_, err = passphrase(c, io.Discard)
	require.ErrorIs(t, err, ErrNoPassphrase)

	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	_, err = passphrase(c, io.Discard)
	require.EqualError(t, err, "tty gone")
}

func TestSignalContext(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := SignalContext(parent)
	defer stop()

	cancelParent()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
