package main

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophmedia/internal/app"
	"github.com/dmitrijs2005/gophmedia/internal/config"
	"github.com/spf13/cobra"
)

// commandContext builds the App lazily, so commands that only use the codec
// never touch the database or ask for a passphrase.
type commandContext struct {
	cfg *config.Config
	// appOptions is extended by tests.
	appOptions []app.Option

	once   sync.Once
	app    *app.App
	appErr error
}

func newCommandContext(cfg *config.Config) *commandContext {
	return &commandContext{cfg: cfg}
}

func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	c.once.Do(func() {
		c.app, c.appErr = app.New(ctx, c.cfg, c.appOptions...)
	})
	return c.app, c.appErr
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// withApp adapts fn to a cobra RunE that builds the App first and closes it
// afterwards.
func (c *commandContext) withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := c.ensureApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, c.close()) }()
		return fn(cmd, args, a)
	}
}
