package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lifx-exporter/internal/config"
	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/discovery"
	"github.com/muurk/lifx-exporter/internal/lan"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/metrics"
	"github.com/muurk/lifx-exporter/internal/ui"
)

// Scan command flags
var (
	scanTimeout time.Duration
	scanFormat  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find LIFX bulbs on the network and print their state",
	Long: `Broadcast LIFX discovery, wait for bulbs to answer, then query each
bulb once and print what was found.

The scan binds an ephemeral UDP port, so it can run alongside a running
exporter.`,
	Example: `  # Scan for 5 seconds (default)
  lifx-exporter scan

  # Longer scan for busy networks
  lifx-exporter scan --timeout 15s

  # Machine readable output
  lifx-exporter scan --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Second, "How long to wait for bulbs to answer")
	scanCmd.Flags().StringVar(&scanFormat, "format", "table", "Output format (table, json)")
}

// scanResult is one bulb in scan output
type scanResult struct {
	Device device.Device
	State  *device.State
}

func (r scanResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		device.Device
		ProductName string        `json:"product_name"`
		Reachable   bool          `json:"reachable"`
		State       *device.State `json:"state,omitempty"`
	}{r.Device, r.Device.ProductName(), r.State != nil, r.State})
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", scanFormat)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Scan output is for humans; only log when asked to
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	out := cmd.OutOrStdout()
	width := ui.GetTerminalWidth()
	broadcast := net.JoinHostPort(cfg.Discovery.Broadcast, strconv.Itoa(cfg.Discovery.Port))

	if scanFormat == "table" {
		fmt.Fprintln(out, ui.NewHeader("LIFX Exporter", "scan",
			ui.Param{Key: "Broadcast", Value: broadcast},
			ui.Param{Key: "Timeout", Value: scanTimeout.String()},
		).SetWidth(width).Render())
	}

	results, err := scan(cmd.Context(), out, lan.Config{
		ListenAddr:     ":0",
		BroadcastAddr:  broadcast,
		RequestTimeout: cfg.Poll.QueryTimeout,
	}, scanTimeout, cfg.Discovery.FetchTimeout)
	if err != nil {
		if scanFormat == "table" && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, ui.NewFailureResult("Scan failed", err).SetWidth(width).Render())
		}
		return err
	}

	if scanFormat == "json" {
		return writeScanJSON(out, results)
	}

	rows := make([]ui.DeviceRow, 0, len(results))
	reachable := 0
	for _, r := range results {
		rows = append(rows, ui.NewDeviceRow(r.Device, r.State))
		if r.State != nil {
			reachable++
		}
	}
	fmt.Fprintln(out, ui.RenderDeviceTable(rows, width))

	if len(results) == 0 {
		fmt.Fprintln(out, ui.NewFailureResult("No bulbs found", nil,
			"Check that the bulbs are powered and on the same network",
			"Broadcast traffic may be blocked; try --timeout 15s",
			"Set discovery.broadcast to your subnet broadcast address",
		).SetWidth(width).Render())
		return nil
	}

	noun := "bulbs"
	if len(results) == 1 {
		noun = "bulb"
	}
	fmt.Fprintln(out, ui.NewSuccessResult(fmt.Sprintf("Found %d %s", len(results), noun),
		ui.Param{Key: "Reachable", Value: strconv.Itoa(reachable)},
	).SetWidth(width).Render())
	return nil
}

// scan discovers bulbs for timeout, fetches their attributes and queries
// their state once. Results are in registry order.
func scan(ctx context.Context, out io.Writer, lanCfg lan.Config, timeout, fetchTimeout time.Duration) ([]scanResult, error) {
	client, err := lan.Listen(lanCfg)
	if err != nil {
		return nil, err
	}

	registry := device.NewRegistry()
	bridge := discovery.NewBridge(registry, client, metrics.Nop{}, fetchTimeout)

	var results []scanResult
	err = ui.RunScan(ctx, out, timeout, func(ctx context.Context, found func(int)) error {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		lanErr := make(chan error, 1)
		go func() { lanErr <- client.Run(runCtx) }()

		deadline := time.NewTimer(timeout)
		defer deadline.Stop()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

	collect:
		for {
			select {
			case <-ctx.Done():
				cancel()
				bridge.Wait()
				return ctx.Err()
			case err := <-lanErr:
				cancel()
				bridge.Wait()
				if err == nil {
					err = errors.New("lan transport stopped")
				}
				return err
			case ev, ok := <-client.Events():
				if !ok {
					break collect
				}
				bridge.Handle(runCtx, ev)
			case <-ticker.C:
				found(registry.Len())
			case <-deadline.C:
				break collect
			}
		}

		bridge.Wait()
		found(registry.Len())
		results = queryAll(runCtx, client, registry.Snapshot())

		cancel()
		<-lanErr
		return nil
	})
	return results, err
}

// queryAll queries every bulb concurrently; unreachable bulbs get a nil state
func queryAll(ctx context.Context, client *lan.Client, devices []device.Device) []scanResult {
	results := make([]scanResult, len(devices))
	var wg sync.WaitGroup
	for i, d := range devices {
		results[i].Device = d
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			state, err := client.LightState(ctx, id)
			if err == nil {
				results[i].State = state
			}
		}(i, d.ID)
	}
	wg.Wait()
	return results
}

func writeScanJSON(w io.Writer, results []scanResult) error {
	if results == nil {
		results = []scanResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
