package web

import (
	"context"
	"net/http"
	"sync"

	"xp3/internal/logger"
	"xp3/internal/metadata"
	"xp3/internal/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Playlist(ctx context.Context, url string, start, end int, p metadata.Prompter) (pipeline.Summary, error)
	Directory(ctx context.Context, dir string, p metadata.Prompter) (pipeline.Summary, error)
}

// RunnerFactory builds a Runner reporting through hooks.
type RunnerFactory func(hooks pipeline.Hooks) Runner

// Server exposes background jobs over HTTP with websocket progress.
type Server struct {
	ctx       context.Context
	jobMgr    *JobManager
	newRunner RunnerFactory
	logger    *logger.Logger
	wg        sync.WaitGroup
}

// NewServer creates a Server. Jobs are cancelled when ctx is.
func NewServer(ctx context.Context, jobMgr *JobManager, newRunner RunnerFactory, log *logger.Logger) *Server {
	return &Server{
		ctx:       ctx,
		jobMgr:    jobMgr,
		newRunner: newRunner,
		logger:    log,
	}
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("POST /api/tag", s.handleTag)
	mux.HandleFunc("GET /api/suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancelJob)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

// Wait blocks until every started job has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
