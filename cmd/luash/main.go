// Package main is the entry point for the luash shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/luash/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		var perr *app.RecoveredPanicError
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "Error: panic: %v\n", perr.Value)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:   "luash",
		Short: "An interactive shell scripted in Lua",
		Long: `luash is an interactive shell whose command language is Lua.

Every executable on PATH is available as a Lua function, and the shell
builtins (cd, run, source, history, ...) are ordinary globals.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file (.toml, .yaml)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFile, "log-file", "", "write logs to this file")
	return cmd
}

func run(parent context.Context, opts app.Options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	// SIGINT reaches the whole foreground process group. Catch it rather
	// than ignore it: an ignored signal stays ignored in exec'd children.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for {
			select {
			case <-interrupts:
			case <-ctx.Done():
				return
			}
		}
	}()

	application, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Shutdown()

	return application.Run(ctx)
}
