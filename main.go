package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/kasuganosora/stalker/api/rest"
	"github.com/kasuganosora/stalker/api/sse"
	"github.com/kasuganosora/stalker/audit"
	"github.com/kasuganosora/stalker/cache"
	"github.com/kasuganosora/stalker/config"
	dbadapter "github.com/kasuganosora/stalker/db"
	"github.com/kasuganosora/stalker/game/world"
	mw "github.com/kasuganosora/stalker/middleware"
	"github.com/kasuganosora/stalker/model"
	"github.com/kasuganosora/stalker/resource"
	"github.com/kasuganosora/stalker/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run", runID))

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; debug commands are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Level ----
	lvl, err := resource.LoadLevel(cfg.Sim.LevelPath)
	if err != nil {
		logger.Fatal("level load failed", zap.Error(err))
	}
	level, err := world.NewLevel(lvl, world.Options{
		Agent:  cfg.Agent.Runtime(),
		Seed:   cfg.Sim.Seed,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("level init failed", zap.Error(err))
	}
	defer level.Close()
	logger.Info("level loaded", zap.String("name", lvl.Name), zap.Int("agents", level.AgentCount()))

	// ---- Database / Audit ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	if db != nil {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("db migrate failed", zap.Error(err))
		}
		auditSvc := audit.New(db, runID, logger)
		defer auditSvc.Stop(context.Background())
		defer auditSvc.Attach(level.Bus())()
		logger.Info("transition audit enabled", zap.String("mode", cfg.Database.Mode))
	}

	// ---- PubSub relay ----
	pubsub, err := cache.NewPubSub(cache.Config{
		RedisAddr:      cfg.Cache.RedisAddr,
		RedisPassword:  cfg.Cache.RedisPassword,
		RedisDB:        cfg.Cache.RedisDB,
		LocalPubSubBuf: cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		logger.Fatal("pubsub init failed", zap.Error(err))
	}
	defer pubsub.Close()
	relay := cache.NewRelay(pubsub, cfg.Cache.RelayChannel, logger)
	defer relay.Stop()
	defer relay.Attach(level.Bus())()

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	reportStatus := func(context.Context) { world.LogStatus(level, logger) }
	sched.AddDelay("startup_status", time.Second, reportStatus)
	if cfg.Sim.StatusInterval > 0 {
		sched.AddTicker("status_report", cfg.Sim.StatusInterval, reportStatus)
	}

	// ---- Simulation loop ----
	go level.Run(ctx, cfg.Sim.TickInterval())

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst))

	apirest.NewDebugHandler(level, sched, logger).Register(r, cfg.Server.AdminKey)
	r.GET("/api/events", sse.NewHandler(pubsub, cfg.Cache.RelayChannel, logger).ServeSSE)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
