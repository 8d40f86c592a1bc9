package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPInFlight        GaugeVec

	// gRPC Layer
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Annotation Layer
	AnnotateRequestsTotal CounterVec
	AnnotateDuration      HistogramVec
	AnnotatePassDuration  HistogramVec
	AnnotateGraphAtoms    HistogramVec
	AnnotateChangesTotal  CounterVec

	// Job Layer
	JobsTotal      CounterVec
	JobDuration    HistogramVec
	JobResultBytes HistogramVec

	// Infrastructure Layer
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	StorageDuration  HistogramVec
	DBQueryDuration  HistogramVec

	ErrorsTotal CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultPassDurationBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .5}
	DefaultJobDurationBuckets  = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultAtomCountBuckets    = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000}
	DefaultSizeBuckets         = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPInFlight = collector.RegisterGauge("http_in_flight_requests", "HTTP requests being served", "method")

	// gRPC
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	// Annotation
	m.AnnotateRequestsTotal = collector.RegisterCounter("annotate_requests_total", "Annotation requests", "kind", "status")
	m.AnnotateDuration = collector.RegisterHistogram("annotate_duration_seconds", "Annotation pipeline duration", DefaultHTTPDurationBuckets, "kind")
	m.AnnotatePassDuration = collector.RegisterHistogram("annotate_pass_duration_seconds", "Duration of one annotation pass", DefaultPassDurationBuckets, "pass")
	m.AnnotateGraphAtoms = collector.RegisterHistogram("annotate_graph_atoms", "Atoms submitted per request", DefaultAtomCountBuckets, "kind")
	m.AnnotateChangesTotal = collector.RegisterCounter("annotate_changes_total", "Graph annotations applied", "change")

	// Jobs
	m.JobsTotal = collector.RegisterCounter("jobs_total", "Annotation jobs processed", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Annotation job duration", DefaultJobDurationBuckets, "status")
	m.JobResultBytes = collector.RegisterHistogram("job_result_bytes", "Stored result size", DefaultSizeBuckets)

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.StorageDuration = collector.RegisterHistogram("storage_duration_seconds", "Object storage operation duration", DefaultJobDurationBuckets, "operation")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Job ledger query duration", DefaultPassDurationBuckets, "operation")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// NewNoopAppMetrics returns metrics that record nothing.  Used where no
// collector is configured.
func NewNoopAppMetrics() *AppMetrics {
	counter := noopVec[Counter]{m: noopMetric{}}
	gauge := noopVec[Gauge]{m: noopMetric{}}
	hist := noopVec[Histogram]{m: noopMetric{}}
	return &AppMetrics{
		HTTPRequestsTotal:     counter,
		HTTPRequestDuration:   hist,
		HTTPRequestSize:       hist,
		HTTPResponseSize:      hist,
		HTTPInFlight:          gauge,
		GRPCRequestsTotal:     counter,
		GRPCRequestDuration:   hist,
		AnnotateRequestsTotal: counter,
		AnnotateDuration:      hist,
		AnnotatePassDuration:  hist,
		AnnotateGraphAtoms:    hist,
		AnnotateChangesTotal:  counter,
		JobsTotal:             counter,
		JobDuration:           hist,
		JobResultBytes:        hist,
		CacheHitsTotal:        counter,
		CacheMissesTotal:      counter,
		StorageDuration:       hist,
		DBQueryDuration:       hist,
		ErrorsTotal:           counter,
	}
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// TrackInFlight counts one request of the given method as in flight until the
// returned func is called.
func TrackInFlight(metrics *AppMetrics, method string) func() {
	g := metrics.HTTPInFlight.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// RecordGRPCRequest records one unary call.  code is the gRPC status code
// name.
func RecordGRPCRequest(metrics *AppMetrics, service, method, code string, duration time.Duration) {
	metrics.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	metrics.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordAnnotation records one pipeline run.  kind is molecule or reaction.
func RecordAnnotation(metrics *AppMetrics, kind string, atoms int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.AnnotateRequestsTotal.WithLabelValues(kind, status).Inc()
	metrics.AnnotateDuration.WithLabelValues(kind).Observe(duration.Seconds())
	metrics.AnnotateGraphAtoms.WithLabelValues(kind).Observe(float64(atoms))
}

// RecordPass records the duration of a single annotation pass.
func RecordPass(metrics *AppMetrics, pass string, duration time.Duration) {
	metrics.AnnotatePassDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// RecordChanges adds n to the counter of the given annotation kind.
func RecordChanges(metrics *AppMetrics, change string, n int) {
	if n > 0 {
		metrics.AnnotateChangesTotal.WithLabelValues(change).Add(float64(n))
	}
}

// RecordJob records the outcome of an asynchronous annotation job.
func RecordJob(metrics *AppMetrics, status string, duration time.Duration, resultBytes int) {
	metrics.JobsTotal.WithLabelValues(status).Inc()
	metrics.JobDuration.WithLabelValues(status).Observe(duration.Seconds())
	if resultBytes > 0 {
		metrics.JobResultBytes.WithLabelValues().Observe(float64(resultBytes))
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordDBQuery records one job ledger query.
func RecordDBQuery(metrics *AppMetrics, operation string, duration time.Duration) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}

//Personal.AI order the ending
