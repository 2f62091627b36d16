package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/lifx-exporter/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/lifx-exporter/internal/version.Commit=abc123"
//
// Otherwise they are filled from the module build info, falling back to "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		info, ok := debug.ReadBuildInfo()
		if ok {
			fromBuildInfo(info)
		}
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills unset values from the module version and VCS stamps
func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		Commit = revision
		if modified {
			Commit += "-dirty"
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s)", Version, Commit, runtime.Version())
}

// NewCollector returns a constant lifx_exporter_build_info gauge
func NewCollector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lifx_exporter_build_info",
		Help: "Build information for the LIFX exporter; the value is always 1.",
		ConstLabels: prometheus.Labels{
			"version":   Version,
			"commit":    Commit,
			"goversion": runtime.Version(),
		},
	}, func() float64 { return 1 })
}
