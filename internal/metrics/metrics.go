// Package metrics owns the process-level Prometheus registry: build info,
// screen gauges, and the /metrics handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

type Config struct {
	Enabled bool
	Build   BuildInfo
}

// Provider serves its own registry merged with the default one, where the
// observability counters and the Go/process collectors live.
type Provider struct {
	reg          *prometheus.Registry
	buildInfo    *prometheus.GaugeVec
	screenActive prometheus.Gauge
	enabled      bool
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "branch", "build_date"},
	)
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "discovery_screen_active",
		Help: "1 while a discovery screen instance is active.",
	})
	reg.MustRegister(build, active)

	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.Branch, v.BuildDate).Set(1)

	return &Provider{reg: reg, buildInfo: build, screenActive: active, enabled: cfg.Enabled}
}

func (p *Provider) Enabled() bool { return p.enabled }

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{p.reg, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

func (p *Provider) SetScreenActive(on bool) {
	if on {
		p.screenActive.Set(1)
		return
	}
	p.screenActive.Set(0)
}
