/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package appinfo provides the name and version of the tool.
package appinfo

import (
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Name is the tool name used in the user agent and metrics.
const Name = "phrase-migrate"

const devVersion = "v0.0.0-dev"

// PrometheusVersionLabel is the label of the build info metric that holds the version.
const PrometheusVersionLabel = "version"

// ldflagsVersion may be set at link time: -ldflags "-X github.com/acronis/phrase-migrate/internal/appinfo.ldflagsVersion=v1.0.0".
var ldflagsVersion string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the tool version.
// The link-time value wins, then the main module version from the build info.
func Version() string {
	versionOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		version = resolveVersion(ldflagsVersion, info)
	})
	return version
}

func resolveVersion(fromLdflags string, info *debug.BuildInfo) string {
	if fromLdflags != "" {
		return fromLdflags
	}
	if info != nil && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}

// UserAgent returns the User-Agent value for outgoing HTTP requests.
func UserAgent() string {
	return Name + "/" + Version()
}

// NewPrometheusBuildInfo creates a gauge that is always 1 and carries the version label.
func NewPrometheusBuildInfo(namespace string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information of " + Name + ".",
		ConstLabels: prometheus.Labels{PrometheusVersionLabel: Version()},
	})
	g.Set(1)
	return g
}
