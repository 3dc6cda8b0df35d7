// Camcfg manages the persistent configuration of Anyka-based IP cameras.
//
// It reads and writes the INI file kept on the camera's JFFS2 partition
// (/etc/jffs2/anyka_cfg.ini by default), either as one-shot commands or as
// a long-running service that owns the live settings and writes changes
// back on a schedule.
//
// Usage:
//
//	camcfg [command] [flags]
//
// See 'camcfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	noFallback bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "camcfg",
	Short: "IP camera configuration store",
	Long: `Inspect, validate and edit the camera configuration file.

The file location is taken from --config, then $CAMCFG_CONFIG, then
/etc/jffs2/anyka_cfg.ini. When the file cannot be opened the legacy
location is tried unless --no-fallback is given.`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&noFallback, "no-fallback", false, "Do not try the legacy file location")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty reads $CAMCFG_LOG_LEVEL")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "camcfg %s\n", version.Get())
	},
}
