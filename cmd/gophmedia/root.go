package main

import (
	"github.com/dmitrijs2005/gophmedia/internal/config"
	"github.com/spf13/cobra"
)

// newRootCommand loads defaults and the JSON file named in args, then binds
// flags on top so the command line wins.
func newRootCommand(args []string) (*cobra.Command, error) {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}

	ctx := newCommandContext(cfg)

	rootCmd := &cobra.Command{
		Use:           "gophmedia",
		Short:         "Encrypted media attachments with on-demand thumbnails",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetArgs(args)

	config.BindFlags(rootCmd.PersistentFlags(), cfg)

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newThumbnailCommand(ctx))
	rootCmd.AddCommand(newEncryptCommand())
	rootCmd.AddCommand(newDecryptCommand())
	rootCmd.AddCommand(newLengthCommand())

	return rootCmd, nil
}
