/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the reelshelf REST API server.

Catalog routes live under /api/v1 and require the X-API-Key header when
server.api_key is set. Prometheus metrics are served on /metrics.

Examples:
  reelshelf serve
  reelshelf serve --port 9000 --bind 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		flags := cmd.Flags()
		if flags.Changed("port") {
			a.cfg.Server.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("bind") {
			a.cfg.Server.Bind, _ = flags.GetString("bind")
		}
		if flags.Changed("api-key") {
			a.cfg.Server.APIKey, _ = flags.GetString("api-key")
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := api.NewMetrics(reg)
		a.onRecover = append(a.onRecover, metrics.RecordRecovery)

		opts := []api.Option{
			api.WithLogger(a.logger),
			api.WithMetrics(metrics),
			api.WithGatherer(reg),
			api.WithBackend(a.backendName()),
		}
		fetcher, err := container.GetFetcherFactory()(a.cfg.Metadata, a.logger)
		if err != nil {
			a.logger.WithError(err).Warn("metadata lookup disabled")
		} else {
			opts = append(opts, api.WithFetcher(fetcher))
		}

		if a.cfg.Server.APIKey == "" {
			a.logger.Warn("server.api_key is empty; the catalog API is unauthenticated")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverConfig := api.ServerConfig{
			Bind:   a.cfg.Server.Bind,
			Port:   a.cfg.Server.Port,
			APIKey: a.cfg.Server.APIKey,
		}
		newPrinter(cmd).Printf("🚀 Serving %s on %s\n", a.cfg.Storage.Path, serverConfig.Addr())

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, a.store, serverConfig, opts...)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: from config)")
	serveCmd.Flags().String("bind", "", "Address to bind server to (default: from config)")
	serveCmd.Flags().String("api-key", "", "API key required in X-API-Key (default: from config)")
}
