package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/middleware"
	"github.com/MyButtermilk/Scriber-sub000/internal/api/v1/handlers"
	v1routes "github.com/MyButtermilk/Scriber-sub000/internal/api/v1/routes"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/worker"
)

// Config tunes the HTTP server.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

// Server is the operator-facing HTTP surface: job lifecycle, provider
// health and prometheus metrics.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(
	config Config,
	orchestrator *worker.Orchestrator,
	ledger repository.JobDAO,
	providerRouter *provider.Router,
	registry prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 15 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	jobHandler := handlers.NewJobHandler(orchestrator, ledger, logger)
	providerHandler := handlers.NewProviderHandler(providerRouter)

	api := router.Group("/api")
	v1 := api.Group("/v1")
	v1routes.RegisterRoutes(v1, jobHandler, providerHandler)

	return &Server{
		config: config,
		router: router,
		httpServer: &http.Server{
			Addr:         config.ListenAddr,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger: logger,
	}
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.config.ListenAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
