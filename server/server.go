// Package server - HTTP API for post processing model outputs.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/nvr-ai/go-yolo/config"
	"github.com/nvr-ai/go-yolo/models"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/profiler"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server serves the post processors over HTTP.
type Server struct {
	cfg    config.Config
	log    *logrus.Logger
	router *mux.Router
	// base is the processor configuration with labels resolved, shared by
	// every request.
	base       model.Config
	processors map[model.Name]model.Processor
	profiler   *profiler.Profiler
}

// New creates a server and builds one processor per supported name from the
// configured processor settings.
//
// Arguments:
//   - cfg: The service configuration.
//   - log: The logger for request and lifecycle logging.
//
// Returns:
//   - The server, or an error if a processor cannot be built.
func New(cfg config.Config, log *logrus.Logger) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.Processor
	labels, err := models.ResolveLabels(base)
	if err != nil {
		return nil, err
	}
	base.Labels, base.LabelsFile, base.LabelSet = labels, "", ""

	s := &Server{
		cfg:        cfg,
		log:        log,
		base:       base,
		processors: make(map[model.Name]model.Processor, len(model.Names)),
		profiler:   profiler.New(profiler.Options{}),
	}

	for _, name := range model.Names {
		pc := base
		pc.Name = name
		p, err := models.NewProcessor(pc)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s processor", name)
		}
		s.processors[name] = p
	}

	s.router = mux.NewRouter()
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/processors", s.handleProcessors).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/process", s.handleProcess).Methods(http.MethodPost)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.router,
		Addr:         s.cfg.Server.Addr,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("Server starting on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Request handled")
	})
}
