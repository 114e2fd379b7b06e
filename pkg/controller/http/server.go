package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/service/metrics"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/errutil"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/secmon-lab/risktree/pkg/utils/safe"
)

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	metrics *metrics.Collector
}

type Options func(*Server)

// WithMetrics counts API requests and serves /metrics
func WithMetrics(collector *metrics.Collector) Options {
	return func(s *Server) {
		s.metrics = collector
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("usecases are required")
	}

	r := chi.NewRouter()
	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.listNodes)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getNode)
				r.Patch("/", s.renameNode)
				r.Delete("/", s.deleteNode)
				r.Post("/children", s.addChild)
				r.Put("/risk", s.updateRisk)
				r.Post("/duplicate", s.duplicateNode)
				r.Post("/move-up", s.moveNode(true))
				r.Post("/move-down", s.moveNode(false))
			})
		})
		r.Post("/recompute", s.recompute)
		r.Get("/totals", s.totals)
		r.Get("/check", s.check)
		r.Get("/report", s.report)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// statusOf maps usecase errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrForbiddenOperation):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrValidation, "invalid request body", goerr.V("error", err.Error()))
	}
	return nil
}

func nodeIDParam(r *http.Request) (types.NodeID, error) {
	raw := chi.URLParam(r, "id")
	id, err := types.ParseNodeID(raw)
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrValidation, "invalid node id", goerr.V(usecase.NodeIDKey, raw))
	}
	return id, nil
}
