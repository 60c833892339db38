package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/api"
	"github.com/matzehuels/arteria/pkg/observability"
)

const shutdownTimeout = 10 * time.Second

type serveOpts struct {
	addr         string
	store        string
	bucket       string
	redisURL     string
	noCache      bool
	maxTerminals int
	maxRadius    int
	runTimeout   time.Duration
}

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:         ":8080",
		store:        "memory",
		maxTerminals: api.DefaultMaxTerminals,
		maxRadius:    api.DefaultMaxRadius,
		runTimeout:   api.DefaultRunTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the growth HTTP API",
		Long: `Serve exposes growth runs over HTTP:

  POST /runs                           grow a tree
  GET  /runs                           list stored runs
  GET  /runs/{id}                      fetch a run and its document
  GET  /runs/{id}/artifacts/{format}   fetch or render an artifact
  GET  /healthz                        liveness
  GET  /metrics                        Prometheus metrics`,
		Example: `  arteria serve --addr :9000 --store sqlite:/var/lib/arteria/runs.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", opts.addr, "listen address")
	f.StringVar(&opts.store, "store", opts.store, "run store (memory, default, sqlite:PATH, postgres://, mongodb://)")
	f.StringVar(&opts.bucket, "s3-bucket", "", "upload artifacts to this S3 bucket")
	f.StringVar(&opts.redisURL, "redis", "", "shared Redis cache URL")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the tree and artifact cache")
	f.IntVar(&opts.maxTerminals, "max-terminals", opts.maxTerminals, "largest terminal count a request may ask for")
	f.IntVar(&opts.maxRadius, "max-radius", opts.maxRadius, "largest perfusion radius a request may ask for")
	f.DurationVar(&opts.runTimeout, "run-timeout", opts.runTimeout, "deadline for a single growth run")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewPrometheus(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	store, err := openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()
	artifacts, err := openArtifacts(ctx, opts.bucket, store)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redisURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	h, err := api.New(api.Config{
		Runner:       runner,
		Store:        store,
		Artifacts:    artifacts,
		Logger:       logger,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		MaxTerminals: opts.maxTerminals,
		MaxRadius:    opts.maxRadius,
		RunTimeout:   opts.runTimeout,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "store", redactURL(opts.store))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
