package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/drake/pimeconsole/config"
	"github.com/drake/pimeconsole/console"
	"github.com/drake/pimeconsole/endpoint"
	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/network"
)

func newAddressCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the debug pipe address for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			addr := cfg.Address
			if addr == "" {
				if addr, err = endpoint.Resolve(); err != nil {
					return fmt.Errorf("%s: %w", console.MsgResolveFailed, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			path := flags.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", path)
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newRestartCmd(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Ask the backend to restart its language backends, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger, closeLog := newLogger(cfg, false)
			defer closeLog()

			c := console.New(console.Config{
				Address:       cfg.Address,
				Logger:        logger,
				SendQueueSize: cfg.SendQueue,
			})
			defer c.Close()

			if err := sendRestart(cmd.Context(), c, timeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "restart requested")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the pipe")
	return cmd
}

// sendRestart connects, writes the restart command once and waits until the
// write completes or fails.
func sendRestart(ctx context.Context, c *console.Console, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		if errors.Is(err, endpoint.ErrIdentityUnavailable) {
			return fmt.Errorf("%s: %w", console.MsgResolveFailed, err)
		}
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("restart: %w", ctx.Err())

		case ev := <-c.Events():
			switch ev.Type {
			case event.StateChanged:
				switch ev.State {
				case network.StateConnected:
					if err := c.RestartBackends(); err != nil {
						return err
					}
				case network.StateFailed, network.StateDisconnected:
					return eventError(ev)
				}
			case event.CommandSent:
				return nil
			case event.CommandFailed:
				return eventError(ev)
			}
		}
	}
}

func eventError(ev event.Event) error {
	if ev.Err == nil {
		return errors.New(ev.Message)
	}
	return fmt.Errorf("%s: %w", ev.Message, ev.Err)
}
