// Package server exposes the dataset engines over HTTP. Every browser session
// owns its own current dataset.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/KaramelBytes/trendloom/internal/state"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "trendloom_session"

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	HeadRows       int
	Parse          parser.Options
	Metrics        bool
	Logger         *slog.Logger
}

// Server holds per-session state and the handler dependencies.
type Server struct {
	opt      Options
	log      *slog.Logger
	sessions *state.Registry
	validate *validator.Validate
	metrics  *metrics
}

// New builds a Server. A zero MaxUploadBytes means 10 MB.
func New(opt Options) *Server {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 10 << 20
	}
	if opt.HeadRows <= 0 {
		opt.HeadRows = 5
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		opt:      opt,
		log:      log.With(slog.String("component", "server")),
		sessions: state.NewRegistry(),
		validate: validator.New(),
	}
	s.metrics = newMetrics(func() float64 { return float64(s.sessions.Len()) })
	return s
}

// Sessions exposes the session registry for housekeeping.
func (s *Server) Sessions() *state.Registry { return s.sessions }

// Router wires the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.opt.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(s.sessionMiddleware)
		r.Post("/upload", s.handleUpload)
		r.Route("/dataset", func(r chi.Router) {
			r.Get("/head", s.handleHead)
			r.Get("/statistics", s.handleStatistics)
			r.Get("/trend", s.handleTrend)
			r.Post("/edits", s.handleEdits)
		})
	})
	return r
}

// PruneLoop drops idle sessions every interval until ctx is done.
func (s *Server) PruneLoop(ctx context.Context, interval, ttl time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if n := s.sessions.Prune(now, ttl); n > 0 {
				s.log.Debug("pruned idle sessions", slog.Int("count", n))
			}
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type sessionKey struct{}

// sessionMiddleware attaches the caller's Current, creating a session and
// setting its cookie when the request carries none or an unknown one.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cur *state.Current
		if c, err := r.Cookie(SessionCookie); err == nil {
			cur, _ = s.sessions.Get(c.Value)
		}
		if cur == nil {
			var id string
			id, cur = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, cur)))
	})
}

func currentFrom(ctx context.Context) *state.Current {
	cur, _ := ctx.Value(sessionKey{}).(*state.Current)
	return cur
}
