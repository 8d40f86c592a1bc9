package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	cfg := CollectorConfig{
		Namespace:            "test",
		Subsystem:            "unit",
		EnableGoMetrics:      false,
		EnableProcessMetrics: false,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	handler := collector.Handler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_ValidConfig(t *testing.T) {
	c := newTestCollector(t)
	assert.NotNil(t, c)
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	cfg := CollectorConfig{
		Subsystem: "unit",
	}
	_, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestNewMetricsCollector_WithProcessMetrics(t *testing.T) {
	cfg := CollectorConfig{
		Namespace:            "test",
		EnableProcessMetrics: true,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "process_cpu_seconds_total")
}

func TestRegisterCounter_Success(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("requests_total", "Total requests")
	counter.WithLabelValues().Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_requests_total")
}

func TestRegisterCounter_WithLabels(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("http_requests", "HTTP requests", "method")
	counter.WithLabelValues("GET").Add(5)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_http_requests{method=\"GET\"}")
}

func TestRegisterCounter_Duplicate(t *testing.T) {
	c := newTestCollector(t)
	c1 := c.RegisterCounter("dup_counter", "help")
	c2 := c.RegisterCounter("dup_counter", "help")

	c1.WithLabelValues().Inc()
	c2.WithLabelValues().Inc()

	// the second registration wraps the existing vector
	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_dup_counter 2")
}

func TestRegisterGauge_Success(t *testing.T) {
	c := newTestCollector(t)
	gauge := c.RegisterGauge("active_users", "Active users")
	gauge.WithLabelValues().(interface{ Set(float64) }).Set(10)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_active_users")
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("latency", "Latency", nil)
	hist.WithLabelValues().Observe(0.1)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_latency_bucket")
}

func TestRegisterHistogram_CustomBuckets(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterHistogram("pass_seconds", "Pass", DefaultPassDurationBuckets, "pass").WithLabelValues("valence").Observe(0.0003)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_pass_seconds_bucket{pass="valence",le="0.0005"} 1`)
	assert.Contains(t, output, `test_unit_pass_seconds_bucket{pass="valence",le="0.0001"} 0`)
}

func TestRegisterGauge_IncDec(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "In flight", "method")
	g.WithLabelValues("POST").Inc()
	g.WithLabelValues("POST").Inc()
	g.WithLabelValues("POST").Dec()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_in_flight{method="POST"} 1`)
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.RegisterCounter("concurrent_metric", "help", "id").WithLabelValues("1").Inc()
		}(i)
	}
	wg.Wait()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_concurrent_metric")
}

func TestRegister_TypeConflictRecordsNothing(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict", "help").WithLabelValues().Inc()

	gauge := c.RegisterGauge("conflict", "help")
	assert.NotPanics(t, func() {
		gauge.WithLabelValues().Inc()
		gauge.WithLabelValues().Dec()
	})

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "# TYPE test_unit_conflict counter")
	assert.Contains(t, output, "test_unit_conflict 1")
}

func TestRegister_InvalidNameRecordsNothing(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("bad-name", "help", "kind")
	assert.NotPanics(t, func() { counter.WithLabelValues("x").Add(3) })

	output := scrapeMetrics(t, c)
	assert.NotContains(t, output, "bad")
}

//Personal.AI order the ending
