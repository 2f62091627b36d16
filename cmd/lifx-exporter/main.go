// Lifx-exporter is a Prometheus exporter for LIFX smart bulbs.
//
// It discovers bulbs on the local network over the LIFX LAN protocol, polls
// each bulb's light state on a fixed interval and serves the results as
// Prometheus gauges. Bulbs that stop answering are removed automatically.
//
// Usage:
//
//	lifx-exporter [flags]
//	lifx-exporter scan [--timeout 5s] [--format table|json]
//	lifx-exporter config init|validate
//	lifx-exporter decode [hex...]
//
// See 'lifx-exporter --help' for available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lifx-exporter/internal/config"
	"github.com/muurk/lifx-exporter/internal/lan"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/server"
	"github.com/muurk/lifx-exporter/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := troubleshootingHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// Root command flags
var (
	configPath    string
	port          int
	logLevel      string
	interval      time.Duration
	discoveryPort int
	mdnsEnabled   bool
)

var rootCmd = &cobra.Command{
	Use:   "lifx-exporter",
	Short: "Prometheus exporter for LIFX bulbs",
	Long: `Discovers LIFX bulbs on the local network and exports their power,
hue, saturation, brightness and colour temperature as Prometheus metrics.

Bulbs are found by UDP broadcast and polled every --interval. A bulb that
does not answer a poll is exported with the value -1 until it answers again
or stops responding to discovery altogether, at which point its series are
removed.

Settings are read from the config file (see 'lifx-exporter config init');
flags given on the command line take precedence.`,
	Example: `  # Serve metrics on the default port 8564
  lifx-exporter

  # Poll every 10 seconds and log debug output
  lifx-exporter --interval 10s --log-level debug

  # Advertise the endpoint over mDNS
  lifx-exporter --mdns`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExporter,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().IntVar(&port, "port", 8564, "HTTP port for /metrics")
	rootCmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Time between state polls")
	rootCmd.Flags().IntVar(&discoveryPort, "discovery-port", 56700, "LIFX LAN UDP port")
	rootCmd.Flags().BoolVar(&mdnsEnabled, "mdns", false, "Advertise the metrics endpoint over mDNS")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func runExporter(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.InitializeWith(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	return run(cmd.Context(), cfg)
}

// loadConfig reads the config file and applies flags that were set explicitly.
// The log level comes from --log-level, then LIFX_EXPORTER_LOG_LEVEL, then the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Listen.Port = port
	}
	if flags.Changed("interval") {
		cfg.Poll.Interval = interval
	}
	if flags.Changed("discovery-port") {
		cfg.Discovery.Port = discoveryPort
	}
	if flags.Changed("mdns") {
		cfg.MDNS.Enabled = mdnsEnabled
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	} else if env := os.Getenv(logging.LogLevelEnvVar); env != "" {
		cfg.Log.Level = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func troubleshootingHint(err error) string {
	var httpBind *server.BindError
	if errors.As(err, &httpBind) {
		if errors.Is(err, syscall.EADDRINUSE) {
			return "The metrics port is already in use; use --port to pick another."
		}
		return "Check that listen.address is valid for this host."
	}
	return lan.GetTroubleshootingHint(err)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lifx-exporter %s\n", version.Full())
	},
}
