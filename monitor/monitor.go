// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	BuzzesTotal       prometheus.Counter
	FoulsTotal        prometheus.Counter
	RoomsSweptTotal   prometheus.Counter
	ReactionTime      prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_connections",
			Help:      "Number of open websocket connections",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of open rooms",
		}),
		BuzzesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buzzes_total",
			Help:      "Total number of scored buzzes",
		}),
		FoulsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fouls_total",
			Help:      "Total number of fouls (buzz before start)",
		}),
		RoomsSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_swept_total",
			Help:      "Total number of idle rooms removed by the sweeper",
		}),
		ReactionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaction_time_seconds",
			Help:      "Reaction time of scored buzzes",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	reg.MustRegister(
		m.OnlineConnections,
		m.ActiveRooms,
		m.BuzzesTotal,
		m.FoulsTotal,
		m.RoomsSweptTotal,
		m.ReactionTime,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

// NewMonitorWithRegisterer is used by tests to avoid the global
// prometheus registry.
func NewMonitorWithRegisterer(namespace string, reg prometheus.Registerer) *Monitor {
	return &Monitor{
		metrics:   NewMetricsWithRegisterer(namespace, reg),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncConnections() {
	m.metrics.OnlineConnections.Inc()
}

func (m *Monitor) DecConnections() {
	m.metrics.OnlineConnections.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) ObserveBuzz(reaction time.Duration) {
	m.metrics.BuzzesTotal.Inc()
	m.metrics.ReactionTime.Observe(reaction.Seconds())
}

func (m *Monitor) IncFouls() {
	m.metrics.FoulsTotal.Inc()
}

func (m *Monitor) AddSweptRooms(count int) {
	m.metrics.RoomsSweptTotal.Add(float64(count))
}
