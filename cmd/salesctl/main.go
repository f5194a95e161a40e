// Command salesctl runs the sales assistant from a terminal and manages its
// catalog indexes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/WessleyAI/wessley-sales/internal/app"
	"github.com/WessleyAI/wessley-sales/pkg/config"
	"github.com/spf13/cobra"
)

type cli struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	// overridable in tests
	loadConfig func() (*config.Config, error)
	newApp     func(ctx context.Context, cfg *config.Config, logger *slog.Logger, o app.Options) (*app.App, error)

	catalogPath string
	logLevel    string
}

func newCLI(in io.Reader, out io.Writer) *cli {
	return &cli{in: in, out: out, loadConfig: config.Load, newApp: app.New}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "salesctl",
		Short:         "Vehicle sales assistant CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
				level = slog.LevelWarn
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().StringVar(&c.catalogPath, "catalog", "", "Catalog CSV path (overrides CATALOG_PATH)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newChatCmd(c),
		newSearchCmd(c),
		newFinanceCmd(c),
		newSeedGraphCmd(c),
		newGraphStatsCmd(c),
		newIndexCmd(c),
	)
	root.SetIn(c.in)
	root.SetOut(c.out)
	return root
}

// config loads configuration and applies flag overrides.
func (c *cli) config() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if c.catalogPath != "" {
		cfg.Catalog.Source = "csv"
		cfg.Catalog.Path = c.catalogPath
	}
	return cfg, nil
}

// app wires the assistant without the NATS event sink.
func (c *cli) app(ctx context.Context) (*app.App, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return c.newApp(ctx, cfg, c.logger, app.Options{SkipNATS: true})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newCLI(os.Stdin, os.Stdout)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
