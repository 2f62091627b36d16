package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/muurk/lifx-exporter/internal/config"
	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/discovery"
	"github.com/muurk/lifx-exporter/internal/lan"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/metrics"
	"github.com/muurk/lifx-exporter/internal/mqtt"
	"github.com/muurk/lifx-exporter/internal/poller"
	"github.com/muurk/lifx-exporter/internal/server"
	"github.com/muurk/lifx-exporter/internal/version"
)

// lanConfig maps the discovery section onto LAN client options
func lanConfig(cfg *config.Config) lan.Config {
	p := strconv.Itoa(cfg.Discovery.Port)
	return lan.Config{
		ListenAddr:        net.JoinHostPort("", p),
		BroadcastAddr:     net.JoinHostPort(cfg.Discovery.Broadcast, p),
		DiscoveryInterval: cfg.Discovery.Interval,
		ExpireAfter:       cfg.Discovery.ExpireAfter,
		RequestTimeout:    cfg.Poll.QueryTimeout,
	}
}

// run wires the exporter together and blocks until ctx is cancelled or the
// LAN transport fails. Startup failures (bind, registration) are returned
// before anything is left running.
func run(ctx context.Context, cfg *config.Config) error {
	client, err := lan.Listen(lanConfig(cfg))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		client.Close()
		return fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		client.Close()
		return fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(version.NewCollector()); err != nil {
		client.Close()
		return fmt.Errorf("register build info: %w", err)
	}
	prom, err := metrics.NewPrometheus(reg)
	if err != nil {
		client.Close()
		return err
	}

	hub := server.NewHub()
	sinks := metrics.MultiSink{prom, hub}

	devices := device.NewRegistry()
	srv := server.New(server.Config{Addr: cfg.ListenAddr()}, server.Deps{
		Registry: devices,
		Gatherer: reg,
		Hub:      hub,
	})
	if err := srv.Start(); err != nil {
		client.Close()
		return err
	}

	// Optional subsystems: failures are logged and the exporter carries on
	if cfg.MQTT.Enabled {
		mirror, err := mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Retain:      cfg.MQTT.Retain,
		})
		if err != nil {
			logging.Warn("MQTT mirror disabled", zap.Error(err))
		} else {
			defer mirror.Close()
			sinks = append(sinks, mirror)
		}
	}
	if cfg.MDNS.Enabled {
		adv, err := server.Advertise(cfg.MDNS.Instance, cfg.Listen.Port)
		if err != nil {
			logging.Warn("mDNS advertisement disabled", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	bridge := discovery.NewBridge(devices, client, sinks, cfg.Discovery.FetchTimeout)
	p := poller.New(devices, client, sinks, poller.Config{
		Interval:     cfg.Poll.Interval,
		QueryTimeout: cfg.Poll.QueryTimeout,
		SkipInFlight: cfg.Poll.SkipInFlight,
		OnTick:       prom.SetDeviceCount,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	lanErr := make(chan error, 1)
	wg.Add(3)
	go func() {
		defer wg.Done()
		lanErr <- client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		bridge.Run(ctx, client.Events())
	}()
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	logging.Info("LIFX exporter running",
		zap.String("version", version.Version),
		zap.String("metrics", srv.Addr()),
		zap.Duration("interval", cfg.Poll.Interval),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping exporter...")
	case runErr = <-lanErr:
		if runErr != nil {
			runErr = fmt.Errorf("lan transport: %w", runErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	cancel()
	wg.Wait()
	bridge.Wait()
	p.Wait()

	logging.Info("LIFX exporter stopped")
	return runErr
}
