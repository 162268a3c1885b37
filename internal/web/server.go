package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/logger"
	"github.com/hpungsan/quill/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the approval UI and JSON API.
func NewServer(db *sql.DB, cfg *config.Config, p *pipeline.Pipeline, version, bind string, port int) (*http.Server, error) {
	handler, err := newHandler(db, cfg, p, version)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func newHandler(db *sql.DB, cfg *config.Config, p *pipeline.Pipeline, version string) (http.Handler, error) {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		pipeline: p,
		renderer: NewRenderer(templateSub, version),
	}

	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/drafts", http.StatusFound)
	})
	mux.HandleFunc("GET /drafts", h.HandleList)
	mux.HandleFunc("GET /drafts/{id}", h.HandleDetail)
	mux.HandleFunc("POST /drafts/{id}/{action}", h.HandleAction)
	mux.HandleFunc("DELETE /drafts/{id}", h.HandleDelete)
	mux.HandleFunc("GET /approve/{id}", h.HandleApproveLink)
	mux.HandleFunc("POST /approve/{id}", h.HandleApproveConfirm)

	// JSON API
	mux.HandleFunc("POST /api/generate/briefs", h.HandleGenerateBriefs)
	mux.HandleFunc("POST /api/generate/analysis", h.HandleGenerateAnalysis)
	mux.HandleFunc("POST /api/generate/connection", h.HandleGenerateConnection)
	mux.HandleFunc("GET /api/posts/pending", h.HandleAPIPending)
	mux.HandleFunc("GET /api/posts/{id}", h.HandleAPIGet)
	mux.HandleFunc("PUT /api/posts/{id}/text", h.HandleAPIUpdateText)
	mux.HandleFunc("POST /api/posts/{id}/approve", h.HandleAPIApprove)
	mux.HandleFunc("POST /api/posts/{id}/reject", h.HandleAPIReject)
	mux.HandleFunc("POST /api/posts/{id}/publish", h.HandleAPIPublish)
	mux.HandleFunc("POST /api/posts/{id}/schedule", h.HandleAPISchedule)
	mux.HandleFunc("DELETE /api/posts/{id}", h.HandleAPIDelete)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	handler := securityHeaders(mux)
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Accept"},
		}).Handler(handler)
	}
	return handler, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.InfoWithFields("quill UI running", logger.Fields{"url": "http://" + srv.Addr})

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.WarnWithFields("server is binding to all interfaces and may be accessible from the network", logger.Fields{"addr": srv.Addr})
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.InfoWithFields("shutting down", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
