// Command readstyle serves and edits reading-style preferences.
//
// Usage:
//
//	readstyle serve --config readstyle.yaml        # HTTP API (+ --mcp for MCP over stdio)
//	readstyle resolve https://example.com/post     # settings that apply to a URL
//	readstyle analyze page.html --url https://...  # text and main content elements
//	readstyle analyze https://example.com --render # same, rendered in Chrome
//	readstyle css https://example.com/post         # stylesheet for a URL
//	readstyle export > settings.json
//	readstyle import settings.json
//	readstyle reset
//	readstyle profiles
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/readstyle/adjuster"
	"github.com/hazyhaar/readstyle/kit"
	"github.com/hazyhaar/readstyle/observability"
)

type rootArgs struct {
	ConfigPath string
	Store      string
	DBPath     string
	RedisAddr  string
	LogLevel   string
	LogFormat  string

	logger *slog.Logger
}

func (ra *rootArgs) addFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&ra.ConfigPath, "config", "", "path to readstyle.yaml")
	f.StringVar(&ra.Store, "store", "", "preference store: sqlite, redis or memory")
	f.StringVar(&ra.DBPath, "db", "", "SQLite database path")
	f.StringVar(&ra.RedisAddr, "redis", "", "Redis address for --store redis")
	f.StringVar(&ra.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&ra.LogFormat, "log-format", "json", "log format: json or text")

	err := cmd.RegisterFlagCompletionFunc("store",
		cobra.FixedCompletions([]string{adjuster.BackendSQLite, adjuster.BackendRedis, adjuster.BackendMemory}, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func (ra *rootArgs) setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := observability.ParseLevel(ra.LogLevel)
	if err != nil {
		return err
	}
	ra.logger = observability.NewLogger(cmd.ErrOrStderr(), level, ra.LogFormat)
	slog.SetDefault(ra.logger)
	return nil
}

// config loads --config, then applies the flag overrides.
func (ra *rootArgs) config() (*adjuster.Config, error) {
	cfg := &adjuster.Config{}
	if ra.ConfigPath != "" {
		var err error
		if cfg, err = adjuster.LoadConfigFile(ra.ConfigPath); err != nil {
			return nil, err
		}
	}
	if ra.Store != "" {
		cfg.Store.Backend = ra.Store
	}
	if ra.DBPath != "" {
		cfg.Store.DBPath = ra.DBPath
	}
	if ra.RedisAddr != "" {
		cfg.Store.RedisAddr = ra.RedisAddr
	}
	return cfg, nil
}

// open builds an Adjuster for a one-shot command. The caller closes it.
func (ra *rootArgs) open(ctx context.Context, opts ...adjuster.Option) (*adjuster.Adjuster, error) {
	cfg, err := ra.config()
	if err != nil {
		return nil, err
	}
	return adjuster.New(ctx, cfg, ra.logger, opts...)
}

func newRootCmd() *cobra.Command {
	args := &rootArgs{}
	cmd := &cobra.Command{
		Use:               "readstyle",
		Short:             "Reading-style preferences: profiles, per-site rules and page analysis.",
		SilenceUsage:      true,
		PersistentPreRunE: args.setupLogging,
	}
	args.addFlags(cmd)
	cmd.AddCommand(
		newServeCmd(args),
		newResolveCmd(args),
		newAnalyzeCmd(args),
		newCSSCmd(args),
		newExportCmd(args),
		newImportCmd(args),
		newResetCmd(args),
		newProfilesCmd(args),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = kit.WithTransport(ctx, kit.TransportCLI)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("readstyle: fatal", "error", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
