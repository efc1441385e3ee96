// Package api is the HTTP façade: endpoints over gin wired to the
// indexing, lemma-frequency, search-builder, and statistics services.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avkrylov/searchcore/internal/config"
	"github.com/avkrylov/searchcore/internal/indexing"
	"github.com/avkrylov/searchcore/internal/lemmafreq"
	"github.com/avkrylov/searchcore/internal/searchbuilder"
	"github.com/avkrylov/searchcore/internal/statistics"
)

// Server owns the gin engine and the *http.Server wrapping it.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        config.APIConfig

	indexing   *indexing.Service
	lemmaFreq  *lemmafreq.Service
	builder    *searchbuilder.Builder
	statistics *statistics.Service
	threshold  float64
}

func New(idx *indexing.Service, lf *lemmafreq.Service, sb *searchbuilder.Builder, st *statistics.Service, cfg config.APIConfig, threshold float64) *Server {
	s := &Server{
		cfg:        cfg,
		indexing:   idx,
		lemmaFreq:  lf,
		builder:    sb,
		statistics: st,
		threshold:  threshold,
	}
	s.setupRouter()
	return s
}

// Start runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server starting", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
