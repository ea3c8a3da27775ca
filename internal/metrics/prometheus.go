package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice collector.
//
// All Record methods are safe to call on a nil receiver, which lets
// tests construct components without registering collectors.
type Metrics struct {
	// Ingestion metrics
	SubmissionsReceived prometheus.Counter
	ValidationFailures  prometheus.Counter
	RecordsIngested     prometheus.Counter
	IngestDuration      prometheus.Histogram
	AudioDuration       prometheus.Histogram

	// Store upload metrics
	UploadAttempts prometheus.Counter
	UploadRetries  prometheus.Counter
	UploadFailures prometheus.Counter

	// Materialization metrics
	RecordsDownloaded prometheus.Counter
	DownloadFailures  prometheus.Counter
	RecordsRewritten  prometheus.Counter
	CastFailures      prometheus.Counter
	SplitsPublished   prometheus.Counter
	PublishFailures   prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SubmissionsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_submissions_received_total",
			Help: "Total number of voice submissions received",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_validation_failures_total",
			Help: "Total number of submissions rejected by validation",
		}),
		RecordsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_records_ingested_total",
			Help: "Total number of records durably written to the store",
		}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_ingest_duration_seconds",
			Help:    "Duration of complete ingestion runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		AudioDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_audio_duration_seconds",
			Help:    "Duration of submitted audio clips",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),

		UploadAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_upload_attempts_total",
			Help: "Total number of store upload attempts",
		}),
		UploadRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_upload_retries_total",
			Help: "Total number of store upload retries",
		}),
		UploadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_upload_failures_total",
			Help: "Total number of uploads that exhausted all attempts",
		}),

		RecordsDownloaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_downloads_total",
			Help: "Total number of audio blobs downloaded during materialization",
		}),
		DownloadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_download_failures_total",
			Help: "Total number of per-record download failures",
		}),
		RecordsRewritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_rewritten_total",
			Help: "Total number of records rewritten to local audio paths",
		}),
		CastFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_cast_failures_total",
			Help: "Total number of records that failed the audio cast",
		}),
		SplitsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_splits_published_total",
			Help: "Total number of splits published back to the store",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voice_materialize_publish_failures_total",
			Help: "Total number of per-split publish failures",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordSubmission increments the submissions received counter.
func (m *Metrics) RecordSubmission() {
	if m == nil {
		return
	}
	m.SubmissionsReceived.Inc()
}

// RecordValidationFailure increments the validation failures counter.
func (m *Metrics) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.ValidationFailures.Inc()
}

// RecordIngested records a completed ingestion with its total duration
// and the duration of the submitted audio.
func (m *Metrics) RecordIngested(ingestSeconds, audioSeconds float64) {
	if m == nil {
		return
	}
	m.RecordsIngested.Inc()
	m.IngestDuration.Observe(ingestSeconds)
	m.AudioDuration.Observe(audioSeconds)
}

// RecordUploadAttempt increments the upload attempts counter.
func (m *Metrics) RecordUploadAttempt() {
	if m == nil {
		return
	}
	m.UploadAttempts.Inc()
}

// RecordUploadRetry increments the upload retries counter.
func (m *Metrics) RecordUploadRetry() {
	if m == nil {
		return
	}
	m.UploadRetries.Inc()
}

// RecordUploadFailure increments the exhausted-upload counter.
func (m *Metrics) RecordUploadFailure() {
	if m == nil {
		return
	}
	m.UploadFailures.Inc()
}

// RecordDownload records a materialization download outcome.
func (m *Metrics) RecordDownload(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.RecordsDownloaded.Inc()
	} else {
		m.DownloadFailures.Inc()
	}
}

// RecordRewrite increments the rewritten records counter.
func (m *Metrics) RecordRewrite() {
	if m == nil {
		return
	}
	m.RecordsRewritten.Inc()
}

// RecordCastFailure increments the cast failures counter.
func (m *Metrics) RecordCastFailure() {
	if m == nil {
		return
	}
	m.CastFailures.Inc()
}

// RecordPublish records a per-split publish outcome.
func (m *Metrics) RecordPublish(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.SplitsPublished.Inc()
	} else {
		m.PublishFailures.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error.
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
