// Package server assembles the gin router and owns the lifecycle of the
// HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/snnyvrz/shelfshare-books/internal/config"
	"github.com/snnyvrz/shelfshare-books/internal/docs"
	"github.com/snnyvrz/shelfshare-books/internal/handler"
	"github.com/snnyvrz/shelfshare-books/internal/logger"
	"github.com/snnyvrz/shelfshare-books/internal/repository"
)

// Deps are the collaborators the router needs. Gatherer may be nil, in
// which case /metrics is not mounted.
type Deps struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Books     repository.BookRepository
	DB        handler.Pinger
	Gatherer  prometheus.Gatherer
	StartTime time.Time
	Version   string
}

// NewRouter builds the engine: health probes at the root, the books API
// under /api, metrics and swagger UI.
func NewRouter(d Deps) (*gin.Engine, error) {
	e := gin.New()
	e.Use(gin.Recovery(), logger.GinLogger(d.Logger))

	if err := e.SetTrustedProxies(d.Config.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	handler.NewHealthHandler(d.DB, d.StartTime, d.Version).RegisterRoutes(e)

	api := e.Group("/api")
	{
		handler.NewBookHandler(d.Books).RegisterRoutes(api)
	}

	if d.Gatherer != nil {
		e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Version = d.Version
	e.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return e, nil
}

type Server struct {
	cfg        config.HTTPConfig
	log        zerolog.Logger
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, log zerolog.Logger, h http.Handler) *Server {
	return &Server{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return <-errCh
}
