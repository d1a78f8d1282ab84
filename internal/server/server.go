// Package server exposes the analysis results as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/constituents"
)

// Analyzer is the subset of analysis.Service the API serves.
type Analyzer interface {
	Indices() []constituents.Index
	Constituents(ctx context.Context, index string) (*analysis.ConstituentsResult, error)
	CrossAlerts(ctx context.Context, index string, lookbackDays int, asOf time.Time) (*analysis.CrossReport, error)
	Candidates(ctx context.Context, limit int, asOf time.Time) (*analysis.CandidateReport, error)
	Changes(ctx context.Context) (*analysis.ChangesReport, error)
	ChangePerformance(ctx context.Context, date time.Time, includeFrames bool) (*analysis.ChangePerformance, error)
	Rebase(ctx context.Context, ticker string, anchor time.Time) (*analysis.RebaseResult, error)
}

// Config holds listener settings.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultConfig listens on localhost. Scans of large indices are slow, so the
// request timeout is generous.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   11 * time.Minute,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Minute,
	}
}

// Addr returns host:port.
func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Server is the HTTP API.
type Server struct {
	router  *mux.Router
	server  *http.Server
	svc     Analyzer
	metrics http.Handler
	config  Config
}

// New wires routes. metricsHandler may be nil to disable /metrics.
func New(svc Analyzer, metricsHandler http.Handler, config Config) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		svc:     svc,
		metrics: metricsHandler,
		config:  config,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         config.Addr(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/indices", s.indices).Methods(http.MethodGet)
	api.HandleFunc("/indices/{index}/constituents", s.constituents).Methods(http.MethodGet)
	api.HandleFunc("/crosses", s.crosses).Methods(http.MethodGet)
	api.HandleFunc("/candidates", s.candidates).Methods(http.MethodGet)
	api.HandleFunc("/changes", s.changes).Methods(http.MethodGet)
	api.HandleFunc("/changes/{date}/performance", s.changePerformance).Methods(http.MethodGet)
	api.HandleFunc("/rebase/{ticker}/{date}", s.rebase).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.notFound)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr()).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
