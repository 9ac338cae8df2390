// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}
	for _, name := range []string{
		"alfac_files_total",
		"alfac_diagnostics_total",
		"alfac_documents_emitted_total",
		"alfac_compile_duration_seconds",
	} {
		require.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestRecordFileIncrementsCounterAndObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	before := testutil.ToFloat64(m.FilesTotal.WithLabelValues("ok"))
	m.RecordFile("ok", 5*time.Millisecond)
	after := testutil.ToFloat64(m.FilesTotal.WithLabelValues("ok"))
	require.Equal(t, before+1, after)

	require.Equal(t, 1, testutil.CollectAndCount(m.CompileDuration))
}

func TestRecordDiagnosticIncrementsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	before := testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("TypeMismatch"))
	m.RecordDiagnostic("TypeMismatch")
	after := testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("TypeMismatch"))
	require.Equal(t, before+1, after)
}

func TestRecordDocumentIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	require.Equal(t, float64(0), testutil.ToFloat64(m.DocumentsEmitted))
	m.RecordDocument()
	m.RecordDocument()
	require.Equal(t, float64(2), testutil.ToFloat64(m.DocumentsEmitted))
}
