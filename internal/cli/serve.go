package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qsimplify/internal/server"
	"github.com/matzehuels/qsimplify/pkg/observability"
	"github.com/matzehuels/qsimplify/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		rulesPath string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simplification API over HTTP",
		Long: `Serve starts the HTTP API:

  POST /v1/simplify   simplify a circuit
  GET  /v1/rules      list the loaded rules
  GET  /healthz       liveness and build info
  GET  /metrics       Prometheus metrics

The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := c.config()
			if err != nil {
				return err
			}
			set, err := c.loadRules(rulesPath)
			if err != nil {
				return err
			}
			store, err := cfg.OpenCache(ctx)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(store, nil, c.Logger)
			runner.TTL = cfg.Cache.TTL.Std()
			defer runner.Close()

			opts := server.Options{
				Runner:         runner,
				Rules:          set,
				Defaults:       cfg.PipelineOptions(),
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				RequestTimeout: cfg.Server.RequestTimeout.Std(),
				Logger:         c.Logger,
			}
			if !noMetrics {
				observability.NewPrometheus(nil).Install()
				defer observability.Reset()
				opts.Metrics = promhttp.Handler()
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			c.Logger.Info("serving", "addr", addr, "rules", set.Len(), "cache", cfg.Cache.Backend)
			return server.New(opts).ListenAndServe(ctx, addr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "listen address (default: configured, :8080)")
	flags.StringVarP(&rulesPath, "rules", "r", "", "rule document (default: configured or bundled rules)")
	flags.BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}
