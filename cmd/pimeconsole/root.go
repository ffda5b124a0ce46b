package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/drake/pimeconsole/config"
	"github.com/drake/pimeconsole/console"
	"github.com/drake/pimeconsole/debug"
	"github.com/drake/pimeconsole/endpoint"
	"github.com/drake/pimeconsole/ui"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	address    string
	logLevel   string
	simple     bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "pimeconsole",
		Short: "Live view of the PIME backend debug pipe",
		Long: "pimeconsole connects to the PIME input method backend's debug pipe, " +
			"shows its output as it arrives and can ask it to restart its language backends.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&flags.address, "address", "", "pipe address, overriding the per-user default")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().BoolVar(&flags.simple, "simple", false, "print lines to stdout instead of the full-screen UI")

	root.AddCommand(
		newAddressCmd(flags),
		newConfigCmd(flags),
		newRestartCmd(flags),
	)
	return root
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("address") {
		cfg.Address = flags.address
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if f := cmd.Flags().Lookup("simple"); f != nil && f.Changed {
		cfg.Simple = flags.simple
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger. The full-screen UI owns the terminal,
// so it logs to a file; everything else logs to stderr.
func newLogger(cfg config.Config, toFile bool) (*log.Logger, func()) {
	level, _ := log.ParseLevel(cfg.Log.Level) // validated by config
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if toFile {
		out = io.Discard
		if cfg.Log.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err == nil {
				if f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
					out = f
					closeFn = func() { f.Close() }
				}
			}
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "pimeconsole",
	})
	return logger, closeFn
}

func runConsole(cmd *cobra.Command, flags *globalFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg, !cfg.Simple)
	defer closeLog()

	c := console.New(console.Config{
		Address:       cfg.Address,
		Logger:        logger,
		SendQueueSize: cfg.SendQueue,
	})
	defer c.Close()

	// An unresolvable address is already on screen as a diagnostic line;
	// keep the window open so the user can read it.
	if err := c.Start(ctx); err != nil && !errors.Is(err, endpoint.ErrIdentityUnavailable) {
		return fmt.Errorf("start console: %w", err)
	}

	debug.NewMonitor(c, cfg.Monitor.Enabled, cfg.Monitor.Interval, logger).Start(ctx)

	mode := ui.ModeTUI
	if cfg.Simple {
		mode = ui.ModeSimple
	}
	view := ui.New(mode, c, ui.Options{
		Scrollback: cfg.Scrollback,
		Colors:     cfg.Colors,
		Input:      cmd.InOrStdin(),
		Output:     cmd.OutOrStdout(),
		Logger:     logger,
	})
	return view.Run(ctx)
}
