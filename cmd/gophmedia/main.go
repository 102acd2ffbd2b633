package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophmedia/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	cmd, err := newRootCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
