// Package cli is the order store's command line: serve, migrate and token.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ordersync/internal/buildinfo"
	"github.com/dmitrijs2005/ordersync/internal/server/config"
)

// EnvFile is loaded before the environment is read, when present.
const EnvFile = ".env"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ordersync-server",
		Short: "Reference order store for ordersync clients",
		Long: `ordersync-server stores orders submitted by ordersync clients and serves
them back over HTTP/JSON, either to the device that placed them or, for
admins, all at once.

Settings come from flags, ORDERSYNC_* variables, an optional .env file and
an optional config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd(), newVersionCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) {
	if err := run(ctx, NewRootCmd(), os.Args[1:], os.Stderr); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) error {
	root.SetArgs(args)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
