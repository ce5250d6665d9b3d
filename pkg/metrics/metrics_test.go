package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	done := m.Begin("generate")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	done("valid")
	m.ObserveExtraction("valid")
	m.ObserveExtraction("malformed")
	m.ObserveExtraction("malformed")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("generate", "valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Extractions.WithLabelValues("malformed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Begin("edit")("transport_error")
		m.ObserveExtraction("valid")
	})
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
