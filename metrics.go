package matio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// See package metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordSave is called after each save. count is the number of matrices,
	// bytes the encoded size (zero on failure).
	RecordSave(count int, bytes int64, duration time.Duration, err error)

	// RecordLoad is called after each load.
	RecordLoad(count int, bytes int64, duration time.Duration, err error)

	// RecordProbe is called after each multiplicity probe.
	RecordProbe(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSave(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordProbe(time.Duration, error)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SaveCount      atomic.Int64
	SaveErrors     atomic.Int64
	SavedMatrices  atomic.Int64
	SavedBytes     atomic.Int64
	SaveTotalNanos atomic.Int64
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadedMatrices atomic.Int64
	LoadedBytes    atomic.Int64
	LoadTotalNanos atomic.Int64
	ProbeCount     atomic.Int64
	ProbeErrors    atomic.Int64
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(count int, bytes int64, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SavedMatrices.Add(int64(count))
	b.SavedBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count int, bytes int64, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedMatrices.Add(int64(count))
	b.LoadedBytes.Add(bytes)
}

// RecordProbe implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProbe(_ time.Duration, err error) {
	b.ProbeCount.Add(1)
	if err != nil {
		b.ProbeErrors.Add(1)
	}
}

// MetricsStats is a point-in-time copy of BasicMetricsCollector.
type MetricsStats struct {
	SaveCount    int64
	SaveErrors   int64
	SavedBytes   int64
	SaveAvgNanos int64
	LoadCount    int64
	LoadErrors   int64
	LoadedBytes  int64
	LoadAvgNanos int64
	ProbeCount   int64
	ProbeErrors  int64
}

// GetStats returns a snapshot of the counters.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		SaveCount:   b.SaveCount.Load(),
		SaveErrors:  b.SaveErrors.Load(),
		SavedBytes:  b.SavedBytes.Load(),
		LoadCount:   b.LoadCount.Load(),
		LoadErrors:  b.LoadErrors.Load(),
		LoadedBytes: b.LoadedBytes.Load(),
		ProbeCount:  b.ProbeCount.Load(),
		ProbeErrors: b.ProbeErrors.Load(),
	}
	if s.SaveCount > 0 {
		s.SaveAvgNanos = b.SaveTotalNanos.Load() / s.SaveCount
	}
	if s.LoadCount > 0 {
		s.LoadAvgNanos = b.LoadTotalNanos.Load() / s.LoadCount
	}
	return s
}
