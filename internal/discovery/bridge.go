package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/metrics"
	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds each attribute fetch
const DefaultFetchTimeout = 5 * time.Second

// AttributeFetcher retrieves the slow-changing attributes of one bulb
type AttributeFetcher interface {
	Label(ctx context.Context, id string) (string, error)
	Location(ctx context.Context, id string) (string, error)
	Group(ctx context.Context, id string) (string, error)
	Version(ctx context.Context, id string) (vendor, product uint32, err error)
	HostFirmware(ctx context.Context, id string) (device.Firmware, error)
	WifiFirmware(ctx context.Context, id string) (device.Firmware, error)
}

// attribute fetches one attribute and returns the mutation that stores it
type attribute struct {
	name  string
	fetch func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error)
}

var attributes = []attribute{
	{"label", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		v, err := f.Label(ctx, id)
		return func(d *device.Device) { d.Label = v }, err
	}},
	{"location", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		v, err := f.Location(ctx, id)
		return func(d *device.Device) { d.Location = v }, err
	}},
	{"group", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		v, err := f.Group(ctx, id)
		return func(d *device.Device) { d.Group = v }, err
	}},
	{"version", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		vendor, product, err := f.Version(ctx, id)
		return func(d *device.Device) { d.Vendor, d.Product = vendor, product }, err
	}},
	{"host_firmware", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		v, err := f.HostFirmware(ctx, id)
		return func(d *device.Device) { d.HostFirmware = v }, err
	}},
	{"wifi_firmware", func(ctx context.Context, f AttributeFetcher, id string) (func(*device.Device), error) {
		v, err := f.WifiFirmware(ctx, id)
		return func(d *device.Device) { d.WifiFirmware = v }, err
	}},
}

// Bridge turns discovery events into registry changes.
//
// A bulb is registered as soon as it appears, with only its ID known. Its
// attributes are then fetched concurrently, each with its own timeout, and
// written into the registry as they arrive. A failed fetch leaves the
// attribute at its previous value and is not retried.
type Bridge struct {
	registry *device.Registry
	fetcher  AttributeFetcher
	sink     metrics.Sink
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewBridge creates a bridge. A zero timeout uses DefaultFetchTimeout.
func NewBridge(registry *device.Registry, fetcher AttributeFetcher, sink metrics.Sink, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &Bridge{
		registry: registry,
		fetcher:  fetcher,
		sink:     sink,
		timeout:  timeout,
	}
}

// Run handles events until ctx is cancelled or events is closed
func (b *Bridge) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Handle(ctx, ev)
		}
	}
}

// Handle applies a single event
func (b *Bridge) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case Appeared:
		b.appeared(ctx, ev)
	case Disappeared:
		b.disappeared(ev)
	default:
		logging.Warn("Ignoring unknown discovery event", zap.Stringer("kind", ev.Kind), zap.String("device_id", ev.ID))
	}
}

// Wait blocks until all outstanding attribute fetches have finished
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) appeared(ctx context.Context, ev Event) {
	// Duplicate announcement: keep fetched attributes, refresh the address
	if b.registry.Update(ev.ID, func(d *device.Device) { d.Addr = ev.Addr }) {
		logging.Debug("Duplicate discovery announcement", zap.String("device_id", ev.ID), zap.String("addr", ev.Addr))
		return
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	b.registry.Register(device.Device{
		ID:           ev.ID,
		Addr:         ev.Addr,
		DiscoveredAt: at,
	})
	logging.LogDeviceEvent(ev.ID, "appeared", zap.String("addr", ev.Addr))

	for _, attr := range attributes {
		b.wg.Add(1)
		go b.fetch(ctx, ev.ID, attr)
	}
}

func (b *Bridge) fetch(ctx context.Context, id string, attr attribute) {
	defer b.wg.Done()

	fctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	apply, err := attr.fetch(fctx, b.fetcher, id)
	if err != nil {
		logging.Debug("Attribute fetch failed",
			zap.String("device_id", id),
			zap.String("attribute", attr.name),
			zap.Error(err),
		)
		return
	}

	if !b.registry.Update(id, apply) {
		// Departed while the fetch was outstanding
		return
	}
	logging.Debug("Attribute fetched", zap.String("device_id", id), zap.String("attribute", attr.name))
}

func (b *Bridge) disappeared(ev Event) {
	if !b.registry.Unregister(ev.ID) {
		return
	}
	b.sink.Forget(ev.ID)
	logging.LogDeviceEvent(ev.ID, "disappeared")
}
