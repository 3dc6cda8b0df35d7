package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/report"
	"github.com/muurk/camcfg/internal/storage"
)

// Routes returns the diagnostics handler:
//
//	GET  /metrics     Prometheus exposition
//	GET  /healthz     "ok" once the configuration is bound
//	GET  /config      YAML summary, secrets redacted
//	GET  /config.ini  the file Save would write
//	POST /reload      re-read the file (same as SIGHUP)
//	POST /flush       write pending changes now
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/healthz", s.handleHealth)
	r.Get("/config", s.handleSummary)
	r.Get("/config.ini", s.handleINI)
	r.Post("/reload", s.handleReload)
	r.Post("/flush", s.handleFlush)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	if !s.runtime.Initialized() {
		http.Error(w, "configuration not bound", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleSummary(w http.ResponseWriter, req *http.Request) {
	summary := report.Build(s.runtime.Snapshot(), s.runtime.Generation(), s.runtime.PendingWrites()).WithBoot(s.boot)
	out, err := summary.YAML()
	if err != nil {
		writeError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

func (s *Server) handleINI(w http.ResponseWriter, req *http.Request) {
	settings, err := s.runtime.Export()
	if err != nil {
		writeError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(storage.Serialize(settings))
}

func (s *Server) handleReload(w http.ResponseWriter, req *http.Request) {
	stats, err := s.Reload()
	if err != nil {
		writeError(w, req, err)
		return
	}
	fmt.Fprintf(w, "applied=%d unchanged=%d rejected=%d unknown=%d malformed=%d\n",
		stats.Applied, stats.Unchanged, stats.Rejected, stats.Unknown, stats.Malformed)
}

func (s *Server) handleFlush(w http.ResponseWriter, req *http.Request) {
	pending := s.runtime.PendingWrites()
	if err := s.runtime.Flush(); err != nil {
		writeError(w, req, err)
		return
	}
	fmt.Fprintf(w, "flushed=%d\n", pending)
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	logging.Warn("Diagnostics request failed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", middleware.GetReqID(req.Context())),
		zap.String("remote_addr", req.RemoteAddr),
		zap.Error(err),
	)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
