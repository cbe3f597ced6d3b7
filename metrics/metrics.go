// Package metrics exposes the gateway's counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/valve"
)

const namespace = "valvegw"

// Metrics records modem results and valve positions. It implements
// modem.Recorder and valve.Observer.
type Metrics struct {
	registry *prometheus.Registry

	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	valves   *prometheus.GaugeVec
	commands *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "modem",
			Name:      "results_total",
			Help:      "Modem operations by outcome.",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "modem",
			Name:      "operation_seconds",
			Help:      "Time spent in modem operations.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		valves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "valve",
			Name:      "open",
			Help:      "1 when the valve is open.",
		}, []string{"valve"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valve",
			Name:      "commands_total",
			Help:      "Applied valve commands.",
		}, []string{"command"}),
	}

	m.registry.MustRegister(collectors.NewBuildInfoCollector())
	m.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollections(collectors.GoRuntimeMemStatsCollection | collectors.GoRuntimeMetricsCollection),
	))
	m.registry.MustRegister(m.results, m.duration, m.valves, m.commands)

	for n := 1; n <= valve.Valves; n++ {
		m.valves.WithLabelValues(strconv.Itoa(n)).Set(0)
	}
	return m
}

func (m *Metrics) ObserveResult(op string, st modem.Status, elapsed time.Duration) {
	m.results.WithLabelValues(op, st.String()).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ValveChanged(ev valve.Event) {
	v := 0.0
	if ev.Open {
		v = 1
	}
	m.valves.WithLabelValues(strconv.Itoa(ev.Valve)).Set(v)
	m.commands.WithLabelValues(ev.Command).Inc()
}

// RegisterOverflows exports a running count of received bytes dropped
// because the receive buffer was full.
func (m *Metrics) RegisterOverflows(count func() uint64) error {
	return m.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "uart",
		Name:      "rx_overflow_bytes_total",
		Help:      "Received bytes dropped on a full buffer.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
