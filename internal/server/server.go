package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/boot"
	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/metrics"
	"github.com/muurk/camcfg/internal/runtime"
	"github.com/muurk/camcfg/internal/scheduler"
	"github.com/muurk/camcfg/internal/storage"
)

// Config holds the daemon configuration
type Config struct {
	Path          string // INI file; empty resolves through config.ResolvePath
	FallbackPath  string
	NoFallback    bool
	FlushSchedule string // cron schedule; empty selects scheduler.DefaultSchedule
	ListenAddr    string // diagnostics HTTP address (empty = disabled)
}

// Server owns the live configuration for the lifetime of the process
type Server struct {
	config   *Config
	path     string
	boot     boot.Report
	metrics  *metrics.Metrics
	runtime  *runtime.Runtime
	engine   *storage.Engine
	sched    *scheduler.FlushScheduler
	listener net.Listener
	http     *http.Server

	mu       sync.Mutex
	stopped  bool
	reloadMu sync.Mutex
}

// New performs the boot load, bootstraps the runtime and prepares the
// flush schedule. A missing file starts from defaults.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	path := config.ResolvePath(cfg.Path)

	m := metrics.New()
	live := config.New()
	report, err := boot.Load(live, boot.Options{
		Path:         path,
		FallbackPath: cfg.FallbackPath,
		NoFallback:   cfg.NoFallback,
		Metrics:      m,
	})
	switch {
	case err == nil:
		path = report.Path
	case storage.IsNotExist(err):
		logging.Warn("No configuration file, starting from defaults",
			zap.String("path", path),
		)
	default:
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := runtime.New(runtime.WithMetrics(m))
	if err := rt.Bootstrap(live); err != nil {
		return nil, fmt.Errorf("failed to bootstrap configuration: %w", err)
	}
	engine := storage.NewEngine(rt)
	rt.SetPersister(engine, path)

	sched, err := scheduler.NewFlushScheduler(rt, cfg.FlushSchedule)
	if err != nil {
		_ = rt.Shutdown()
		return nil, err
	}

	return &Server{
		config:  cfg,
		path:    path,
		boot:    report,
		metrics: m,
		runtime: rt,
		engine:  engine,
		sched:   sched,
	}, nil
}

// Runtime returns the live accessor
func (s *Server) Runtime() *runtime.Runtime {
	return s.runtime
}

// Path returns the file the configuration is persisted to
func (s *Server) Path() string {
	return s.path
}

// BootReport returns the outcome of the boot load
func (s *Server) BootReport() boot.Report {
	return s.boot
}

// Start runs the flush schedule and the diagnostics listener, then blocks
// until SIGINT or SIGTERM. SIGHUP re-reads the file through the strict
// setters.
func (s *Server) Start() error {
	logging.Info("Starting configuration service",
		zap.String("path", s.path),
		zap.Uint32("checksum", s.boot.Checksum),
		zap.String("listen", s.config.ListenAddr),
	)

	errChan := make(chan error, 1)
	if s.config.ListenAddr != "" {
		ln, err := net.Listen("tcp", s.config.ListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
		}
		s.listener = ln
		s.http = &http.Server{
			Handler:           s.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		logging.Info("Diagnostics listening", zap.String("addr", ln.Addr().String()))
	}

	s.sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				_, _ = s.Reload()
				continue
			}
			logging.Info("Shutdown signal received, flushing configuration...")
			return s.Shutdown(context.Background())
		case err := <-errChan:
			_ = s.Shutdown(context.Background())
			return err
		}
	}
}

// Reload applies the file through the strict setters. Values that differ
// from the live ones count as mutations and are queued for write-back.
func (s *Server) Reload() (storage.LoadStats, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	stats, err := s.engine.LoadWithStats(s.path)
	if err != nil {
		logging.Error("Configuration reload failed",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return stats, err
	}
	logging.Info("Configuration reloaded",
		zap.String("path", s.path),
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
		zap.Int("unknown", stats.Unknown),
		zap.Uint32("generation", s.runtime.Generation()),
	)
	return stats, nil
}

// Shutdown stops the schedule and the listener, then flushes and unbinds
// the configuration. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	logging.Info("Shutting down configuration service...")

	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
		logging.Warn("Shutdown timeout waiting for scheduled flush")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds waiting for scheduled flush")
	}

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			logging.Error("Error closing diagnostics listener", zap.Error(err))
		}
	}

	err := s.runtime.Shutdown()
	if err != nil && !cfgerr.IsKind(err, cfgerr.NotInitialized) {
		logging.Error("Final flush failed", zap.Error(err))
	} else {
		err = nil
	}

	logging.Sync()
	return err
}
