package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rcliao/temporal-events/internal/api"
	"github.com/rcliao/temporal-events/internal/observability"
	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the events HTTP API",
		Run:   runServe,
	}

	cmd.Flags().String("listen", "", "Listen address (default: server.listen_address or :$PORT)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	c, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		c.Server.ListenAddress = listen
	}

	logger, err := newLogger(c)
	if err != nil {
		exitErr("logger", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		storeOpts []store.Option
		apiOpts   = []api.Option{
			api.WithLogger(logger),
			api.WithRequestTimeout(c.Server.RequestTimeout),
			api.WithMaxBodyBytes(c.Server.MaxBodyBytes),
		}
	)
	if c.Metrics.Enable {
		metrics := observability.NewPrometheusCollector()
		storeOpts = append(storeOpts, store.WithMetrics(metrics))
		apiOpts = append(apiOpts, api.WithMetricsHandler(metrics.Handler()))
	}
	if c.Tracing.Enable {
		provider := observability.NewTracerProvider()
		otel.SetTracerProvider(provider)
		defer provider.Shutdown(cmd.Context())
		storeOpts = append(storeOpts, store.WithTracing(observability.NewTracingCollector(otel.Tracer(observability.TracerName))))
	}

	s, err := c.OpenStore(ctx, logger, storeOpts...)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	logger.Info("starting", "service", api.ServiceName, "backend", c.Backend, "addr", c.Server.ListenAddress)

	err = api.NewServer(s, apiOpts...).ListenAndServe(ctx, api.ServerConfig{
		Addr:         c.Server.ListenAddress,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		IdleTimeout:  c.Server.IdleTimeout,
	})
	if err != nil {
		exitErr("serve", err)
	}
	logger.Info("stopped")
}
