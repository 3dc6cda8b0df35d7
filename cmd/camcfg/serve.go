package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/camcfg/internal/scheduler"
	"github.com/muurk/camcfg/internal/server"
)

// Serve command flags
var (
	flushSchedule string
	listenAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Own the live configuration until stopped",
	Long: `Load the configuration file tolerantly, keep it in memory and write
changes back on a schedule.

Out-of-range values in the file are clamped, overlong strings truncated
and unparsable values replaced by defaults, so the camera always starts.
Send SIGHUP to re-read the file; SIGINT or SIGTERM flush pending changes
and exit.

With --listen, a diagnostics endpoint serves Prometheus metrics and a
redacted summary of the configuration.`,
	Example: `  # Flush every 30 seconds (default)
  camcfg serve

  # Flush once a minute, expose metrics on loopback
  camcfg serve --flush-schedule "@every 1m" --listen 127.0.0.1:9110

  # Cron syntax with an optional seconds field
  camcfg serve --flush-schedule "0 */5 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flushSchedule, "flush-schedule", scheduler.DefaultSchedule, "Cron schedule for writing pending changes")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Diagnostics HTTP address (disabled if not specified)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(&server.Config{
		Path:          configPath,
		NoFallback:    noFallback,
		FlushSchedule: flushSchedule,
		ListenAddr:    listenAddr,
	})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	return srv.Start()
}
