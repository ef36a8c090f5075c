// Package web serves the metrics transport: a root reachability probe and
// the prometheus exposition endpoint. The scrape tracker is marked only
// after a response has been written successfully, so a request that fails
// partway through never counts as a scrape.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/track"
)

// Server hosts the HTTP endpoints.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// New creates a server exposing "/" and "/metrics" on addr. Each complete
// successful metrics response marks the scrape tracker.
func New(addr string, reg *prometheus.Registry, scrapes *track.Tracker, clk clock.Clock, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rootHandler)
	mux.Handle("/metrics", markScrape(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorHandling: promhttp.HTTPErrorOnError}),
		scrapes, clk, logger,
	))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("OK"))
}

// markScrape records a scrape success after the wrapped handler returns,
// and only when the response completed with 200. Building the body is not
// the success event; returning it is.
func markScrape(next http.Handler, scrapes *track.Tracker, clk clock.Clock, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status == http.StatusOK {
			scrapes.Mark(clk.Now())
			logger.Debug("Metrics scraped", zap.String("remote", r.RemoteAddr))
		} else {
			logger.Warn("Metrics scrape failed", zap.Int("status", rec.status))
		}
	})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
