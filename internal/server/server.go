// Package server exposes the queries of one analysis session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/hierarchy-analysis/internal/analysis"
	"github.com/hierarchy-analysis/internal/repository"
	"github.com/hierarchy-analysis/internal/subtypes"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
	"github.com/hierarchy-analysis/pkg/utils"
)

// Server serves the JSON query API.
type Server struct {
	session *analysis.Session
	runs    repository.RunRepository
	addr    string
	logger  utils.Logger
	server  *http.Server

	profiling bool
}

// Option configures a Server.
type Option func(*Server)

// WithRuns enables the stored-run endpoints.
func WithRuns(runs repository.RunRepository) Option {
	return func(s *Server) { s.runs = runs }
}

// WithProfiling mounts the runtime profiles under /debug/pprof/.
func WithProfiling(enabled bool) Option {
	return func(s *Server) { s.profiling = enabled }
}

// NewServer creates a server answering queries against session.
func NewServer(session *analysis.Session, addr string, logger utils.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	s := &Server{session: session, addr: addr, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/subtype", s.handleSubtype)
	mux.HandleFunc("GET /api/meet", s.handleMeet)
	mux.HandleFunc("GET /api/subtypes", s.handleSubtypes)
	mux.HandleFunc("GET /api/supertypes", s.handleSupertypes)
	mux.HandleFunc("GET /api/missing", s.handleMissing)
	mux.HandleFunc("GET /api/report", s.handleReport)
	if s.runs != nil {
		mux.HandleFunc("GET /api/runs", s.handleListRuns)
		mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	}
	if s.profiling {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return s.logRequests(mux)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting query server at %s", s.addr)
	s.logger.Info("Press Ctrl+C to stop")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("%s %s took %s", r.Method, r.URL.RequestURI(), time.Since(start))
	})
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP status codes. An unknown subtype
// relation is a conflict: the question is valid, the classpath is not
// complete enough to answer it.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), Code: apperrors.GetErrorCode(err)}

	status := http.StatusInternalServerError
	var unknown *subtypes.UnknownSubtypeError
	switch {
	case errors.As(err, &unknown):
		status = http.StatusConflict
		resp.Code = apperrors.CodeUnknownSubtype
		resp.Missing = unknown.Missing
	case apperrors.IsInvalidSignature(err):
		status = http.StatusBadRequest
		resp.Code = apperrors.CodeInvalidSignature
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	default:
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, resp)
}

func requireParams(r *http.Request, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = r.URL.Query().Get(name)
		if values[i] == "" {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "missing query parameter: "+name)
		}
	}
	return values, nil
}
