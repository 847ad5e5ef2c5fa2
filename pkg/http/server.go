package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"callinsight/pkg/command"
	"callinsight/pkg/config"
	"callinsight/pkg/diarization"
	"callinsight/pkg/metrics"
	"callinsight/pkg/pipeline"
	"callinsight/pkg/transcript"
)

// Server exposes analysis, health and metrics endpoints, plus the record
// hub WebSocket.
type Server struct {
	config     config.HTTPConfig
	logger     *logrus.Logger
	pipeline   *pipeline.Pipeline
	httpServer *http.Server
	mux        *http.ServeMux
	hub        *RecordHub
	startTime  time.Time
}

// NewServer creates a new HTTP server around a pipeline.
func NewServer(logger *logrus.Logger, cfg config.HTTPConfig, p *pipeline.Pipeline) *Server {
	server := &Server{
		config:    cfg,
		logger:    logger,
		pipeline:  p,
		mux:       http.NewServeMux(),
		hub:       NewRecordHub(logger),
		startTime: time.Now(),
	}

	server.mux.HandleFunc("/health", server.HealthHandler)
	server.mux.HandleFunc("/analyze", server.AnalyzeHandler)
	server.mux.HandleFunc("/ws/records", server.hub.ServeWs)

	if cfg.EnableMetrics {
		server.mux.Handle("/metrics", metrics.Handler())
	}

	p.AddListener(server.hub)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return server
}

// Hub returns the server's record hub.
func (s *Server) Hub() *RecordHub {
	return s.hub
}

// Start runs the record hub and then serves until the listener fails or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	s.logger.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Uptime    string     `json:"uptime"`
	System    SystemInfo `json:"system"`
}

// SystemInfo contains process resource information.
type SystemInfo struct {
	GoRoutines int    `json:"goroutines"`
	MemoryMB   uint64 `json:"memory_mb"`
	CPUCount   int    `json:"cpu_count"`
}

// HealthHandler reports service liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		System: SystemInfo{
			GoRoutines: runtime.NumGoroutine(),
			MemoryMB:   memStats.Alloc / 1024 / 1024,
			CPUCount:   runtime.NumCPU(),
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// analyzeRequest is the POST /analyze body: the ASR segments and
// diarization track for one call, plus optional report commands to run
// against the structured result.
type analyzeRequest struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Diarization []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"diarization"`
	Commands string `json:"commands,omitempty"`
}

// analyzeResponse wraps the pipeline result and any command report lines.
type analyzeResponse struct {
	*pipeline.Result
	Report []string `json:"report,omitempty"`
}

// AnalyzeHandler runs one conversation through the pipeline.
func (s *Server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	segments := make([]transcript.Segment, 0, len(req.Segments))
	for i, in := range req.Segments {
		seg, err := transcript.NewSegment(in.Start, in.End, in.Text)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("segment %d: %v", i, err))
			return
		}
		segments = append(segments, seg)
	}

	entries := make([]diarization.Entry, 0, len(req.Diarization))
	for i, in := range req.Diarization {
		iv, err := transcript.NewInterval(in.Start, in.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("diarization entry %d: %v", i, err))
			return
		}
		entries = append(entries, diarization.Entry{Interval: iv, Speaker: in.Speaker})
	}

	annotation, err := diarization.New(entries)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid diarization track: "+err.Error())
		return
	}

	result := s.pipeline.Process(segments, annotation)

	resp := analyzeResponse{Result: result}
	if req.Commands != "" {
		commands, err := command.ParseAll(req.Commands)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid command: "+err.Error())
			return
		}

		executor := command.NewExecutor(result.Records, result.Attributes, result.Sentiments)
		for _, cmd := range commands {
			out, err := executor.Execute(cmd)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			resp.Report = append(resp.Report, out)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"call_uuid": result.CallUUID,
		"segments":  len(segments),
		"records":   len(result.Records),
	}).Info("Analyze request complete")

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
