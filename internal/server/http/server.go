package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/ekisa-team/speechgate/internal/config"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Server is the speechgate HTTP server.
type Server struct {
	api        huma.API
	handler    http.Handler
	httpServer *http.Server
}

// NewAPIConfig returns the huma configuration for the speechgate API.
func NewAPIConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("speechgate", version)
	cfg.Info.Description = "Text-to-speech and translation gateway."
	// Responses are plain JSON objects without a $schema link.
	cfg.CreateHooks = nil

	return cfg
}

// NewServer creates a server listening on cfg.HTTPPort. Routes are added
// to API() by the handler constructors.
func NewServer(cfg config.ServerConfig, version string) *Server {
	mux := http.NewServeMux()
	api := humago.New(mux, NewAPIConfig(version))

	handler := withRequestID(withAccessLog(newCORS(cfg.AllowedOrigins).Handler(mux)))

	return &Server{
		api:     api,
		handler: handler,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// API returns the huma API to register operations on.
func (s *Server) API() huma.API {
	return s.api
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// newCORS allows only the listed origins. An empty list falls back to
// config.DefaultAllowedOrigins, never to every origin.
func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = config.DefaultAllowedOrigins
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", HeaderRequestID},
	})
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		slog.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"request_id", RequestID(r.Context()),
		)
	})
}
