// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector implements tracker.Recorder on top of Prometheus collectors.
type Collector struct {
	mutations    *prometheus.CounterVec
	ignored      *prometheus.CounterVec
	queries      prometheus.Counter
	queryResults prometheus.Histogram
	stored       *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itrack_mutations_total",
			Help: "Applied store mutations by operation.",
		}, []string{"op"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itrack_ignored_mutations_total",
			Help: "Mutations ignored because the target issue does not exist.",
		}, []string{"op"}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itrack_queries_total",
			Help: "Issue queries served.",
		}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "itrack_query_results",
			Help:    "Number of issues returned per query.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
		}),
		stored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "itrack_stored_records",
			Help: "Records currently held by the store.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.mutations,
		c.ignored,
		c.queries,
		c.queryResults,
		c.stored,
	)

	return c
}

// RecordMutation counts an applied mutation.
func (c *Collector) RecordMutation(op string) {
	c.mutations.WithLabelValues(op).Inc()
}

// RecordIgnored counts a mutation that targeted an unknown issue.
func (c *Collector) RecordIgnored(op string) {
	c.ignored.WithLabelValues(op).Inc()
}

// RecordQuery counts a query and observes its result size.
func (c *Collector) RecordQuery(results int) {
	c.queries.Inc()
	c.queryResults.Observe(float64(results))
}

// SetStored sets the number of stored records of kind.
func (c *Collector) SetStored(kind string, n int) {
	c.stored.WithLabelValues(kind).Set(float64(n))
}

// WriteText writes every metric gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
