package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/productlens/internal/server"
	"github.com/matzehuels/productlens/pkg/cache"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve starts the productlens HTTP API. Clients upload a manifest to
POST /api/analyses and query products, tables and diagrams of the returned
analysis id until it expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, noCache, cache.NewScopedKeyer(nil, "api:"))
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Config{
				Addr:           cfg.Server.Addr,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				Analysis:       cfg.AnalysisOptions(),
				Render:         cfg.RenderOptions("", ""),
				Sessions:       cfg.SessionConfig(),
			}, c.Logger)

			printInfo("Serving on %s", cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}
