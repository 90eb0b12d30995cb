package preview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/vadviktor/icebreaker/pkg/logging"
	"github.com/vadviktor/icebreaker/pkg/pipeline"
	"github.com/vadviktor/icebreaker/pkg/pubsub"
)

// stepStatus is one pipeline step in the /api/status response
type stepStatus struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// statusResponse is the /api/status payload
type statusResponse struct {
	State      string       `json:"state"`
	RunID      string       `json:"run_id,omitempty"`
	DurationMs int64        `json:"duration_ms"`
	Steps      []stepStatus `json:"steps"`
}

// Server serves the synced static directory and pushes live-reload events
type Server struct {
	router    *mux.Router
	staticDir string
	publisher pubsub.Publisher

	mu   sync.RWMutex
	last *pipeline.Result
}

// NewServer creates a preview server for the given static directory
func NewServer(staticDir string) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// build_status: new subscribers only need the current state
	ssePublisher.ConfigureTopic("build_status", pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// reload: never replayed; a page that just connected is already fresh
	ssePublisher.ConfigureTopic("reload", pubsub.TopicConfig{
		BufferSize: 0,
	})

	s := &Server{
		router:    mux.NewRouter(),
		staticDir: staticDir,
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetLastResult stores the most recent pipeline result for /api/status
func (s *Server) SetLastResult(result *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = result
}

// PublishBuildStatus publishes a build status event
func (s *Server) PublishBuildStatus(state, message, runID string, exitCode int) error {
	status := pubsub.BuildStatus{
		State:    state,
		Message:  message,
		RunID:    runID,
		ExitCode: exitCode,
	}
	return s.publisher.Publish("build_status", state, status)
}

// PublishReload tells connected pages to refresh after a successful rebuild
func (s *Server) PublishReload(runID string, duration time.Duration) error {
	data := pubsub.ReloadData{
		RunID:      runID,
		DurationMs: duration.Milliseconds(),
	}
	return s.publisher.Publish("reload", "reload", data)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/events/reload", s.handleSubscribe("reload")).Methods("GET")
	s.router.HandleFunc("/events/build_status", s.handleSubscribe("build_status")).Methods("GET")

	// API routes
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")

	// Serve the synced static directory
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// handleSubscribe streams events for the given topic over SSE
func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		// Create subscription
		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		// Stream events
		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.ErrorContext(r.Context(), "error writing SSE event", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	resp := statusResponse{State: "idle", Steps: []stepStatus{}}
	if last != nil {
		resp.RunID = last.RunID
		resp.DurationMs = last.Duration.Milliseconds()
		resp.State = "succeeded"
		if last.Failed() != nil {
			resp.State = "failed"
		}
		for _, step := range last.Steps {
			ss := stepStatus{
				Name:       step.Name,
				DurationMs: step.Duration.Milliseconds(),
			}
			if step.Err != nil {
				ss.Error = step.Err.Error()
			}
			resp.Steps = append(resp.Steps, ss)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.ErrorContext(r.Context(), "error encoding status response", "error", err)
	}
}

// Start runs the preview server on the given port, blocking until it exits
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("preview server listening", "addr", addr, "static", s.staticDir)
	return http.ListenAndServe(addr, logging.RequestIDMiddleware(s.router))
}

// Close shuts down the publisher and all SSE subscriptions
func (s *Server) Close() error {
	return s.publisher.Close()
}

// Handler exposes the routed handler for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
