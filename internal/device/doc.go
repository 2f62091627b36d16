// Package device holds the bulb model and the registry of discovered bulbs.
//
// A Device is identified by its MAC address. Its label, location, group,
// product and firmware are filled in asynchronously after discovery, so every
// attribute may be empty; DisplayName and ProductName give the values used
// for metric labels in that case.
//
// The Registry keeps devices unique by ID in a deterministic order (display
// name, then ID) and hands out copies via Snapshot so callers never hold its
// lock while doing network I/O.
package device
