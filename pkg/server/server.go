// Package server exposes the meme pipeline over HTTP.
//
// # Routes
//
//	POST   /api/caption                 {topic} → {caption}
//	POST   /api/memes                   {topic, style?} → new meme record
//	POST   /api/render                  {image_url, top_text, bottom_text, style?, format?} → image bytes
//	GET    /api/memes/{id}              history record
//	GET    /api/memes/{id}.{format}     re-rendered meme (png, jpg, pdf, json)
//	GET    /api/memes/{id}/share        share text and links
//	GET    /api/memes/{id}/thumbnail    square PNG preview (?size=)
//	GET    /api/history                 recent memes, newest first
//	DELETE /api/history                 clear history
//	GET    /healthz                     liveness and version
//
// Every response carries permissive CORS headers and OPTIONS requests are
// answered directly, so the API can back a browser editor on any origin.
// /api/render only fetches images from Options.AllowedHosts, so the server
// cannot be pointed at internal addresses.
//
// Errors are JSON objects {"error": message, "code": code} with the status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/memeforge/pkg/pipeline"
)

// Server timeouts and limits.
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 90 * time.Second
	ShutdownTimeout     = 10 * time.Second

	// MaxRequestBody bounds JSON request bodies.
	MaxRequestBody = 1 << 20
)

// DefaultAllowedHosts are the image hosts allowed when Options.AllowedHosts
// is empty.
var DefaultAllowedHosts = []string{"i.imgflip.com"}

// Options configures a Server.
type Options struct {
	// BaseURL is the public address of the API, used for share links.
	// Without it LinkedIn links are omitted.
	BaseURL string

	// AllowedHosts lists the hosts /api/render may fetch images from,
	// compared case-insensitively. "*" allows any host.
	AllowedHosts []string

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner       *pipeline.Runner
	baseURL      string
	allowedHosts []string
	logger       *log.Logger
	router       chi.Router
	now          func() time.Time
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if len(opts.AllowedHosts) == 0 {
		opts.AllowedHosts = DefaultAllowedHosts
	}
	s := &Server{
		runner:       runner,
		baseURL:      opts.BaseURL,
		allowedHosts: opts.AllowedHosts,
		logger:       opts.Logger,
		now:          time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/caption", s.handleCaption)
		r.Post("/render", s.handleRender)

		r.Route("/memes", func(r chi.Router) {
			r.Post("/", s.handleGenerate)
			r.Get("/{ref}", s.handleMeme)
			r.Get("/{id}/share", s.handleShare)
			r.Get("/{id}/thumbnail", s.handleThumbnail)
		})

		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
