// Package cli implements the petweights command line.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"petweights/internal/config"
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c := newCLI()
	defer c.teardown()
	return c.rootCmd().ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "petweights",
		Short: "Sync pet weights from a Litter-Robot account into Google Sheets",
		Long: `Copies the weight readings recorded by a Litter-Robot into one tab of a
Google spreadsheet per pet.

Each sync appends only readings newer than the last row of the tab, sorted by
time, in a single write. Running it on a schedule keeps the sheet current.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "Also write logs to this file, rotated by size")

	root.AddCommand(
		c.syncCmd(),
		c.petsCmd(),
		c.robotsCmd(),
		c.weightsCmd(),
		c.runsCmd(),
		c.sheetsCmd(),
	)
	return root
}

// setup loads the configuration and the logger before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	path, required := c.configPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	file, err := config.Load(path, required)
	if err != nil {
		return err
	}
	c.settings = config.Resolve(file, c.getenv)
	if c.logFile != "" {
		c.settings.Log.File = c.logFile
	}

	c.logger = c.newLogger(cmd.ErrOrStderr())
	slog.SetDefault(c.logger)
	c.logger.Debug("configuration loaded", "path", path, "pet", c.settings.Pet, "ledger", c.settings.LedgerDSN != "")
	return nil
}

func (c *cli) newLogger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}

	w := stderr
	if c.settings.Log.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   c.settings.Log.File,
			MaxSize:    c.settings.Log.MaxSizeMB,
			MaxBackups: c.settings.Log.MaxBackups,
			MaxAge:     c.settings.Log.MaxAgeDays,
		}
		c.closers = append(c.closers, rotated)
		w = io.MultiWriter(stderr, rotated)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *cli) teardown() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
