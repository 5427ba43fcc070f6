// Package metrics exposes the JIT subsystem's counters over Prometheus,
// grounded on the service/metrics pattern used elsewhere in the wider
// corpus: a process-local registry and a plain net/http handler, with no
// indirection beyond what promhttp already provides.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "superscalar_jit"

// Metrics bundles the counters and gauges the JIT subsystem updates as it
// runs the create and migrate handshakes of component H.
type Metrics struct {
	Registry *prometheus.Registry

	ChannelsCreated    prometheus.Counter
	ChannelsMigrated   prometheus.Counter
	ChannelsAborted    prometheus.Counter
	RotationRetries    prometheus.Counter
	RotationExhausted  prometheus.Counter
	WatchtowerBindErrs prometheus.Counter
	ActiveJITChannels  prometheus.Gauge
}

// New builds a Metrics bundle registered against a fresh Prometheus
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ChannelsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_created_total",
			Help:      "Total number of JIT channels that completed the create handshake.",
		}),
		ChannelsMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_migrated_total",
			Help:      "Total number of JIT channels folded back into a factory.",
		}),
		ChannelsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_aborted_total",
			Help:      "Total number of JIT channels that failed the create handshake.",
		}),
		RotationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotation_retries_total",
			Help:      "Total number of factory rotation attempts that failed and were retried.",
		}),
		RotationExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotation_retries_exhausted_total",
			Help:      "Total number of factories that exhausted their rotation retry budget.",
		}),
		WatchtowerBindErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchtower_bind_errors_total",
			Help:      "Total number of non-fatal watchtower binding failures.",
		}),
		ActiveJITChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_channels",
			Help:      "Current number of JIT channels in a non-CLOSED state.",
		}),
	}

	reg.MustRegister(
		m.ChannelsCreated,
		m.ChannelsMigrated,
		m.ChannelsAborted,
		m.RotationRetries,
		m.RotationExhausted,
		m.WatchtowerBindErrs,
		m.ActiveJITChannels,
	)

	return m
}

// ListenAndServe exposes the metrics registry on addr until ctx is
// cancelled.
func ListenAndServe(ctx context.Context, reg *prometheus.Registry, addr string) error {
	server := &http.Server{
		Addr: addr,
		Handler: promhttp.InstrumentMetricHandler(
			reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		),
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-errCh:
		return err
	}
}
