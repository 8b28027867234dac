package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"ledgersync/internal/logging"
	"ledgersync/internal/watchdog"
)

func newWatchdogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watchdog",
		Short: "Monitor the daemon heartbeat and restart it when stalled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			executable, err := os.Executable()
			if err != nil {
				return err
			}
			relaunch := []string{executable, "daemon"}
			if *ctx.configFlag != "" {
				relaunch = append(relaunch, "--config", *ctx.configFlag)
			}

			monitor := watchdog.New(
				cfg.HeartbeatPath(),
				time.Duration(cfg.Watchdog.CheckIntervalMinutes)*time.Minute,
				time.Duration(cfg.Watchdog.StaleMinutes)*time.Minute,
				time.Duration(cfg.Watchdog.CooldownSeconds)*time.Second,
				watchdog.NewProcessRestarter(cfg.LockPath(), relaunch, logger),
				logger,
			)
			return monitor.Run(cmd.Context())
		},
	}
}
