// Package ui provides terminal output for the lifx-exporter CLI.
//
// The exporter itself logs through zap; this package is only used by the
// one-shot commands (scan, config init) whose output is meant for a human.
// Components follow a "run once and exit" pattern:
//
//   - Header: command banner with ordered parameters
//   - ScanModel: Bubble Tea spinner and progress bar shown while scanning
//   - RenderDeviceTable: aligned table of bulbs, narrowed to the terminal
//   - Result: success or failure box, with troubleshooting tips
//
// Example:
//
//	fmt.Println(ui.NewHeader("LIFX Scan", "lifx-exporter scan",
//	    ui.Param{Key: "Timeout", Value: "5s"}).Render())
//
//	err := ui.RunScan(ctx, os.Stdout, 5*time.Second, func(ctx context.Context, found func(int)) error {
//	    // discover, calling found(n) as bulbs answer
//	    return nil
//	})
//
//	fmt.Println(ui.RenderDeviceTable(rows, ui.GetTerminalWidth()))
//
// When stdout is not a terminal RunScan skips the animation, so output can
// be piped.
//
// # Logging Integration
//
// Set LIFX_EXPORTER_LOG_LEVEL to see zap output alongside the UI; when unset
// the scan command keeps logging silent.
package ui
