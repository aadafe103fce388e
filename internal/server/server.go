package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/config"
	"github.com/dorogoy/zipline-mcp-sub003/internal/download"
	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/monitoring"
	"github.com/dorogoy/zipline-mcp-sub003/internal/providers/transfer"
	"github.com/dorogoy/zipline-mcp-sub003/internal/sandbox"
	"github.com/dorogoy/zipline-mcp-sub003/internal/service"
	"github.com/dorogoy/zipline-mcp-sub003/internal/staging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/zipline"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	router   *gin.Engine
	registry *service.Registry
	reaper   *sandbox.Reaper
	metrics  *monitoring.Metrics

	httpSrv     *http.Server
	stopSweeper context.CancelFunc
}

// NewServer creates a new server instance wired from the configuration.
func NewServer(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewDefault()
	}

	promReg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(promReg)

	resolver := sandbox.NewResolver(cfg.Sandbox.BaseDir, cfg.Sandbox.DisableUserSandboxing)
	paths := sandbox.NewPathResolver(nil)
	locks := sandbox.NewLockManager(log)
	stager := staging.NewStager(staging.NewRegexpInspector(), log)

	downloader := download.NewDownloader(download.NewClient(), resolver, paths, log)
	downloader.Timeout = cfg.Download.Timeout()

	reaper := sandbox.NewReaper(resolver, log)
	reaper.OnRemove(func(string) { metrics.RootsReaped.Inc() })

	registry := service.NewRegistry()
	provider := transfer.NewProvider(transfer.Deps{
		Resolver:   resolver,
		Paths:      paths,
		Locks:      locks,
		Stager:     stager,
		Downloader: downloader,
		Remote:     zipline.NewClient(cfg.Zipline.Endpoint, cfg.Zipline.Token),
		Log:        log,
		Metrics:    metrics,
	})
	if err := registry.Register(provider); err != nil {
		return nil, err
	}
	if err := registry.Register(transfer.NewSandboxService(provider)); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestID())
	router.Use(requestLogger(log.Named("http")))
	router.Use(monitoring.Middleware(metrics))

	s := &Server{
		cfg:      cfg,
		log:      log.Named("server"),
		router:   router,
		registry: registry,
		reaper:   reaper,
		metrics:  metrics,
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/services", s.handleListServices)
	router.POST("/execute", s.handleExecute)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	return s, nil
}

// Run starts the sweeper and serves until the listener fails.
func (s *Server) Run() error {
	sweepCtx, cancel := context.WithCancel(context.Background())
	s.stopSweeper = cancel
	if !s.cfg.Sandbox.DisableUserSandboxing {
		go s.reaper.Run(sweepCtx, s.cfg.Sandbox.SweepInterval)
	}

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the sweeper and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
