package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ibraahimlab/voice-collector/internal/audio"
	"github.com/ibraahimlab/voice-collector/internal/config"
	"github.com/ibraahimlab/voice-collector/internal/ingest"
	"github.com/ibraahimlab/voice-collector/internal/metrics"
)

// maxSubmissionBytes bounds the multipart submission body. Recordings
// are short clips; 32 MiB of PCM is over 15 minutes at 16 kHz.
const maxSubmissionBytes = 32 << 20

// HTTPServer provides HTTP API endpoints for submission and monitoring.
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	pipeline *ingest.Pipeline
	metrics  *metrics.Metrics

	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration.
type HTTPServerConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// NewHTTPServer creates a new HTTP API server.
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger,
	appConfig *config.Config, pipeline *ingest.Pipeline, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		pipeline:  pipeline,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes.
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Recording submission endpoint
	mux.HandleFunc("/submit", h.withMetrics("/submit", h.handleSubmit))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection.
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server.
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleSubmit implements the POST /submit endpoint. It accepts a
// multipart form with an "audio" WAV file plus "transcript",
// "speaker_id", and "language" fields and runs the ingestion pipeline.
func (h *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	sub, err := h.parseSubmission(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.pipeline.Ingest(r.Context(), sub)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			h.writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}

		h.logger.Error("Submission ingest failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusBadGateway, "upload failed, please try again")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "uploaded",
		"id":     id,
	})
}

// parseSubmission extracts the recording and its metadata from the
// multipart form. An absent audio file yields an empty submission so
// the pipeline's own validation produces the user-facing message.
func (h *HTTPServer) parseSubmission(r *http.Request) (ingest.Submission, error) {
	sub := ingest.Submission{
		Transcript: r.FormValue("transcript"),
		SpeakerID:  r.FormValue("speaker_id"),
		Language:   r.FormValue("language"),
	}

	file, _, err := r.FormFile("audio")
	if err == http.ErrMissingFile {
		return sub, nil
	}
	if err != nil {
		return sub, fmt.Errorf("invalid audio upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return sub, fmt.Errorf("failed to read audio upload: %w", err)
	}

	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		return sub, fmt.Errorf("audio must be mono 16-bit WAV: %w", err)
	}

	sub.Samples = samples
	sub.SampleRate = sampleRate
	return sub, nil
}

// writeError writes a JSON error response.
func (h *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error":  message,
	})
}

// handleHealth implements the /health endpoint.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]any{
			"name":    "voice-collector",
			"version": "1.0.0",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleConfig implements the /config endpoint.
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Return sanitized configuration (credentials are never included)
	sanitizedConfig := map[string]any{
		"store": map[string]any{
			"backend":    h.config.Store.Backend,
			"endpoint":   h.config.Store.Endpoint,
			"repository": h.config.Store.Repository,
			"subfolder":  h.config.Store.Subfolder,
		},
		"audio": map[string]any{
			"format":             h.config.Audio.Format,
			"target_sample_rate": h.config.Audio.TargetSampleRate,
		},
		"ingest": map[string]any{
			"max_attempts":  h.config.Ingest.MaxAttempts,
			"retry_backoff": h.config.Ingest.RetryBackoff,
		},
		"logging": map[string]any{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation.
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]any{
		"service": "Voice Dataset Collector",
		"version": "1.0.0",
		"endpoints": map[string]any{
			"POST /submit": "Submit a recording (multipart: audio, transcript, speaker_id, language)",
			"GET /health":  "Service health check",
			"GET /config":  "Get service configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
