package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "reelforge",
		Short:        "Turn forum threads and stories into narrated, captioned short videos",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().StringVar(&opts.configPath, "config", "reelforge.toml", "Config file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (text, json)")

	root.AddCommand(
		newFetchCmd(opts),
		newEstimateCmd(opts),
		newRenderCmd(opts),
		newSpeedUpCmd(opts),
		newSplitCmd(opts),
		newPublishCmd(opts),
		newStoryCmd(opts),
		newServeCmd(opts),
		newConfigCmd(),
	)
	return root
}

// load reads the config and builds the logger every command shares.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	app, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		app.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		app.Logging.Format = o.logFormat
	}
	log, err := logging.New(logging.Options{
		Level:  app.Logging.Level,
		Format: app.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return app, log, nil
}

// runContext is cancelled on SIGINT/SIGTERM and after timeout, if positive.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}
