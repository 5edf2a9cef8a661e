package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/persist"
	"github.com/CTAG07/Anthology/pkg/store"
	"github.com/CTAG07/Anthology/pkg/templating"
)

const requestIDHeader = "X-Request-Id"

type contextKey string

const contextKeyRequestID = contextKey("request_id")

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Server wires the API handlers to the library and the engine.
type Server struct {
	config      *ConfigManager
	lib         *library.Library
	engine      *templating.Engine
	logger      *slog.Logger
	dbAPI       *DBAPI
	templateAPI *TemplateAPI
	statsAPI    *StatsAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

// NewServer creates the API server and registers its routes.
func NewServer(config *ConfigManager, lib *library.Library, engine *templating.Engine, actionChan chan string, logger *slog.Logger) *Server {
	server := &Server{
		config:      config,
		lib:         lib,
		engine:      engine,
		logger:      logger,
		dbAPI:       NewDBAPI(lib, logger),
		templateAPI: NewTemplateAPI(engine, config, logger),
		statsAPI:    NewStatsAPI(lib),
		serverAPI:   NewServerAPI(config, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.dbAPI.RegisterRoutes(apiMux)
	server.templateAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// The health check stays open so orchestrators can probe it.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.Authenticate(apiMux))

	return server
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.apiMux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests tags each request with an id and logs it once handled.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))

		s.logger.Debug("Handled request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, store.ErrInvalidValueType),
		errors.Is(err, store.ErrDuplicateKey),
		errors.Is(err, persist.ErrInvalidKey),
		errors.Is(err, library.ErrIndexOutOfRange),
		errors.Is(err, templating.ErrMalformedTemplate),
		errors.Is(err, templating.ErrTooManyCombinations):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError logs err and answers with its mapped status.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", "request_id", requestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	respondWithError(w, code, err.Error())
}
