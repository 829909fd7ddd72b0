package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/readstyle/adjuster"
)

var version = "dev"

type serveArgs struct {
	root *rootArgs
	Addr string
	MCP  bool
}

func newServeCmd(root *rootArgs) *cobra.Command {
	args := &serveArgs{root: root}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, and MCP over stdio with --mcp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return args.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&args.Addr, "addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&args.MCP, "mcp", false, "also serve MCP tools over stdin/stdout")
	return cmd
}

func (sa *serveArgs) run(ctx context.Context) error {
	logger := sa.root.logger
	cfg, err := sa.root.config()
	if err != nil {
		return err
	}
	if sa.Addr != "" {
		cfg.HTTP.Addr = sa.Addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := adjuster.New(ctx, cfg, logger, adjuster.WithRegistry(reg))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("readstyle: listening", "addr", cfg.HTTP.Addr, "store", cfg.Store.Backend, "render", cfg.Browser.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sa.MCP {
		g.Go(func() error {
			ms := mcp.NewServer(&mcp.Implementation{Name: "readstyle", Version: version}, nil)
			a.RegisterMCP(ms)
			logger.Info("readstyle: mcp on stdio")
			if err := ms.Run(gctx, &mcp.StdioTransport{}); err != nil && gctx.Err() == nil {
				return fmt.Errorf("mcp: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("readstyle: shutting down")
	return err
}
