// Package discovery connects bulb discovery to the device registry.
//
// The LAN transport reports bulbs as a stream of Events. The Bridge consumes
// that stream:
//
//  1. On Appeared, the bulb is registered immediately with only its ID and
//     address, so it is polled (and exported under its ID) from the next tick.
//  2. Label, location, group, product version and both firmware versions are
//     then fetched concurrently, each bounded by its own timeout.
//  3. Each successful fetch updates the registry entry in place; the next
//     published record picks up the new labels.
//  4. On Disappeared, the bulb is removed from the registry and the metric
//     sinks are told to forget its series.
//
// # Usage Example
//
//	bridge := discovery.NewBridge(registry, client, sink, 5*time.Second)
//	go bridge.Run(ctx, client.Events())
//	...
//	bridge.Wait()
//
// # Thread Safety
//
// Handle and Run may be called from any goroutine. Attribute fetches run in
// their own goroutines; Wait drains them during shutdown.
package discovery
