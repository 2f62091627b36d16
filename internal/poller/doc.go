// Package poller drives the periodic state queries.
//
// On every tick the poller takes a snapshot of the device registry and starts
// one goroutine per bulb that asks the LAN client for its light state. The
// tick never waits for answers. When a query completes, the bulb's current
// registry entry supplies the metric labels, so an attribute fetched while the
// query was outstanding is already reflected. A bulb that departed in the
// meantime is dropped; a failed or timed-out query is published as no data.
package poller
