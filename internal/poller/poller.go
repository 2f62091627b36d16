package poller

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/metrics"
	"go.uber.org/zap"
)

// Default timings
const (
	DefaultInterval     = 5 * time.Second
	DefaultQueryTimeout = 2 * time.Second
)

// StateQuerier asks one bulb for its current light state
type StateQuerier interface {
	LightState(ctx context.Context, id string) (*device.State, error)
}

// Config holds polling options
type Config struct {
	// Interval between ticks. The first tick runs immediately.
	Interval time.Duration

	// QueryTimeout bounds each state query; a query that exceeds it is
	// published as no data.
	QueryTimeout time.Duration

	// SkipInFlight skips a bulb on a tick while its previous query is still
	// outstanding.
	SkipInFlight bool

	// OnTick is called with the registry size at the start of every tick
	OnTick func(devices int)
}

// DefaultConfig returns the default polling options
func DefaultConfig() Config {
	return Config{
		Interval:     DefaultInterval,
		QueryTimeout: DefaultQueryTimeout,
		SkipInFlight: true,
	}
}

// Poller periodically queries every registered bulb and publishes the
// projected result.
type Poller struct {
	registry *device.Registry
	querier  StateQuerier
	sink     metrics.Sink
	config   Config

	mu       sync.Mutex
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// New creates a poller. Zero durations in config fall back to the defaults.
func New(registry *device.Registry, querier StateQuerier, sink metrics.Sink, config Config) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = DefaultQueryTimeout
	}
	return &Poller{
		registry: registry,
		querier:  querier,
		sink:     sink,
		config:   config,
		inFlight: make(map[string]bool),
	}
}

// Run ticks until ctx is cancelled. Queries started by Run may still be
// outstanding when it returns; use Wait to drain them.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	logging.Info("Poller started",
		zap.Duration("interval", p.config.Interval),
		zap.Duration("query_timeout", p.config.QueryTimeout),
		zap.Bool("skip_in_flight", p.config.SkipInFlight),
	)

	p.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick snapshots the registry and starts one query per bulb without waiting
// for any of them. It returns the number of queries started.
func (p *Poller) Tick(ctx context.Context) int {
	devices := p.registry.Snapshot()
	if p.config.OnTick != nil {
		p.config.OnTick(len(devices))
	}

	started := 0
	for _, d := range devices {
		if !p.claim(d.ID) {
			logging.Debug("Skipping bulb with query in flight", zap.String("device_id", d.ID))
			continue
		}

		started++
		p.wg.Add(1)
		go p.query(ctx, d.ID)
	}
	return started
}

// Wait blocks until all in-flight queries have completed
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) claim(id string) bool {
	if !p.config.SkipInFlight {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[id] {
		return false
	}
	p.inFlight[id] = true
	return true
}

func (p *Poller) release(id string) {
	if !p.config.SkipInFlight {
		return
	}
	p.mu.Lock()
	delete(p.inFlight, id)
	p.mu.Unlock()
}

func (p *Poller) query(ctx context.Context, id string) {
	defer p.wg.Done()
	defer p.release(id)

	qctx, cancel := context.WithTimeout(ctx, p.config.QueryTimeout)
	state, err := p.querier.LightState(qctx, id)
	cancel()

	if ctx.Err() != nil {
		// Shutting down
		return
	}
	if err != nil {
		logging.Debug("State query failed", zap.String("device_id", id), zap.Error(err))
		state = nil
	}

	// Labels come from the entry as it is now, not as it was at tick time.
	// Publishing under the registry lock keeps a concurrent departure from
	// being forgotten before this record lands.
	published := p.registry.View(id, func(current device.Device) {
		p.sink.Publish(metrics.Project(current, state))
	})
	if !published {
		logging.Debug("Dropping result for departed bulb", zap.String("device_id", id))
	}
}
