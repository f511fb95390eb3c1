package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	obsmiddleware "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	obstracing "github.com/spyai-labs/etl-gcp-splash/internal/observability/tracing"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(
		registerGin,
		func(p *pipeline.Pipeline) Runner { return p },
		func(s *jobstatus.Service) StatusReader { return s },
		NewServer,
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

// Runner starts pipeline runs.
type Runner interface {
	Resolve(req pipeline.Request) (pipeline.Request, []extract.Source, error)
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// StatusReader reads persisted job status records.
type StatusReader interface {
	ListByRun(ctx context.Context, runID string) ([]jobstatus.Record, error)
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Base:            log,
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger) *gin.Engine {
	return NewEngine(cfg, log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("server.listen", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server.listen_failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			s.Close()
			return err
		},
	})
}

type Params struct {
	fx.In

	Runner Runner
	Status StatusReader
	Clock  clock.Clock
	Log    *zap.Logger
}

// Server serves the run trigger and status API. Runs execute in the background and
// their progress is kept in memory; finished runs are read back from the status store.
type Server struct {
	runner Runner
	status StatusReader
	clock  clock.Clock
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*runState
	active string
}

func NewServer(p Params) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		runner: p.Runner,
		status: p.Status,
		clock:  p.Clock,
		log:    p.Log.Named("server").With(zap.String("component", "server")),
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]*runState),
	}
}

func registerRoutes(r *gin.Engine, s *Server) {
	s.RegisterRoutes(r)
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/runs", s.StartRun)
	v1.GET("/runs/:run_id", s.GetRun)
}

// Close cancels in-flight runs and waits for them to record their status.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}
