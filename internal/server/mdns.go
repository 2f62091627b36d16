package server

import (
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/version"
)

const (
	// ServiceType is the mDNS service type Prometheus service discovery browses for
	ServiceType = "_prometheus-http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."
)

// Advertiser announces the metrics endpoint over mDNS
type Advertiser struct {
	server *zeroconf.Server
}

// AdvertiseText returns the TXT records published with the service
func AdvertiseText(path string) []string {
	return []string{
		"path=" + path,
		"version=" + version.Version,
	}
}

// Advertise registers instance as a _prometheus-http._tcp service on port
func Advertise(instance string, port int) (*Advertiser, error) {
	if instance == "" {
		return nil, errors.New("mdns instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid mdns port %d", port)
	}

	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, AdvertiseText("/metrics"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising metrics endpoint over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: srv}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("mDNS advertisement withdrawn")
}
