// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package metrics defines the compiler's Prometheus instrumentation (spec
// §2 item 5): counters and histograms for files compiled, diagnostics
// emitted, and compile latency, registered against an injected registry
// rather than the global default so a driver run started as a library
// (pkg/alfac) never collides with a host process's own metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the compiler's Prometheus instruments.
type Metrics struct {
	FilesTotal       *prometheus.CounterVec
	DiagnosticsTotal *prometheus.CounterVec
	DocumentsEmitted prometheus.Counter
	CompileDuration  prometheus.Histogram
}

// New creates and registers the compiler's metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alfac_files_total",
			Help: "Total number of input files processed, by outcome",
		}, []string{"outcome"}),
		DiagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alfac_diagnostics_total",
			Help: "Total number of diagnostics emitted, by kind",
		}, []string{"kind"}),
		DocumentsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alfac_documents_emitted_total",
			Help: "Total number of XACML documents written",
		}),
		CompileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alfac_compile_duration_seconds",
			Help:    "Histogram of per-file compile latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.FilesTotal, m.DiagnosticsTotal, m.DocumentsEmitted, m.CompileDuration)
	return m
}

// RecordFile records the outcome ("ok" or "error") of compiling one file
// and its latency.
func (m *Metrics) RecordFile(outcome string, d time.Duration) {
	m.FilesTotal.WithLabelValues(outcome).Inc()
	m.CompileDuration.Observe(d.Seconds())
}

// RecordDiagnostic increments the counter for one emitted diagnostic kind.
func (m *Metrics) RecordDiagnostic(kind string) {
	m.DiagnosticsTotal.WithLabelValues(kind).Inc()
}

// RecordDocument increments the count of XACML documents successfully
// written.
func (m *Metrics) RecordDocument() {
	m.DocumentsEmitted.Inc()
}
