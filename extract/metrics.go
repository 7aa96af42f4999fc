package extract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Builder. A nil
// *Metrics records nothing.
type Metrics struct {
	builds      *prometheus.CounterVec
	productions prometheus.Counter
	nodes       prometheus.Gauge
	edges       prometheus.Gauge
	duration    prometheus.Histogram
}

// NewMetrics registers the build collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rulegraph_builds_total",
			Help: "Graph builds by result.",
		}, []string{"result"}),
		productions: f.NewCounter(prometheus.CounterOpts{
			Name: "rulegraph_productions_total",
			Help: "Productions turned into graph fragments.",
		}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "rulegraph_nodes",
			Help: "Node keys in the last built graph.",
		}),
		edges: f.NewGauge(prometheus.GaugeOpts{
			Name: "rulegraph_edges",
			Help: "Edge keys in the last built graph.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulegraph_build_duration_seconds",
			Help:    "Time spent loading sources and building the graph.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeBuild(productions, nodes, edges int, took time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.productions.Add(float64(productions))
	m.nodes.Set(float64(nodes))
	m.edges.Set(float64(edges))
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.builds.WithLabelValues("error").Inc()
}
