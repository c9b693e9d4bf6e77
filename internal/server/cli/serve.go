package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ordersync/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP order store",
		Long: `Start the order store. With --storage=postgres pending migrations are
applied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := server.NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			app.Run(cmd.Context())
			return nil
		},
	}
}
