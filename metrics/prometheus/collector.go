// Package prometheus exports codec metrics to Prometheus.
//
//	reg := prom.NewRegistry()
//	mc, _ := prometheus.NewCollector(reg, "matio")
//	c := matio.New(matio.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	"github.com/hupe1980/matio"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Collector implements matio.MetricsCollector with Prometheus vectors.
type Collector struct {
	latency  *prom.HistogramVec
	matrices *prom.CounterVec
	bytes    *prom.CounterVec
	probes   *prom.CounterVec
}

var _ matio.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics under namespace and registers them
// with reg. A nil reg uses the default registerer.
func NewCollector(reg prom.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	c := &Collector{
		latency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of matrix file operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		matrices: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "matrices_total",
			Help:      "Matrices saved or loaded successfully",
		}, []string{"op"}),
		bytes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "File bytes written or read successfully",
		}, []string{"op"}),
		probes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Multiplicity probes",
		}, []string{"status"}),
	}
	for _, col := range []prom.Collector{c.latency, c.matrices, c.bytes, c.probes} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) record(op string, count int, bytes int64, d time.Duration, err error) {
	c.latency.WithLabelValues(op, status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.matrices.WithLabelValues(op).Add(float64(count))
	c.bytes.WithLabelValues(op).Add(float64(bytes))
}

// RecordSave implements matio.MetricsCollector.
func (c *Collector) RecordSave(count int, bytes int64, d time.Duration, err error) {
	c.record("save", count, bytes, d, err)
}

// RecordLoad implements matio.MetricsCollector.
func (c *Collector) RecordLoad(count int, bytes int64, d time.Duration, err error) {
	c.record("load", count, bytes, d, err)
}

// RecordProbe implements matio.MetricsCollector.
func (c *Collector) RecordProbe(d time.Duration, err error) {
	c.latency.WithLabelValues("probe", status(err)).Observe(d.Seconds())
	c.probes.WithLabelValues(status(err)).Inc()
}
