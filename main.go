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
	"github.com/kasuganosora/itemruntime/api/admin"
	"github.com/kasuganosora/itemruntime/audit"
	"github.com/kasuganosora/itemruntime/cache"
	"github.com/kasuganosora/itemruntime/config"
	dbadapter "github.com/kasuganosora/itemruntime/db"
	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/host"
	mw "github.com/kasuganosora/itemruntime/middleware"
	"github.com/kasuganosora/itemruntime/model"
	"github.com/kasuganosora/itemruntime/notify"
	"github.com/kasuganosora/itemruntime/resource"
	"github.com/kasuganosora/itemruntime/savestore"
	"github.com/kasuganosora/itemruntime/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
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

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		logger.Fatal("pubsub", zap.Error(err))
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Item data ----
	res := resource.NewLoader(cfg.Data.ItemsDir, cfg.Data.SetsFile, cfg.Data.BuffsFile, logger)
	res.DefaultMaxStack = cfg.Inventory.DefaultMaxStack
	if err := res.Load(ctx); err != nil {
		logger.Fatal("resource load", zap.Error(err))
	}
	registry := res.Registry()

	// ---- Persistence, audit, notifications ----
	store := savestore.New(db, c, cfg.Cache.SnapshotTTL, logger)

	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	bridge := notify.New(pubsub, logger)
	defer bridge.Stop()

	// ---- Sessions ----
	sm := player.NewSessionManager(logger)
	sessions := host.New(sm, store, player.Deps{
		Resolver: registry,
		Sets:     res.Sets,
		Buffs:    res.Buffs,
		Inventory: inventory.Config{
			Capacity:    cfg.Inventory.DefaultCapacity,
			MaxCapacity: cfg.Inventory.MaxCapacity,
		},
		Logger: logger,
	}, logger, bridge.Attach, auditSvc.Attach)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	sched.SetMaxStep(time.Second)
	sched.AddTicker("session_tick", cfg.Game.TickInterval(), sm.Tick)
	sched.AddTicker("auto_save", cfg.Game.SaveInterval(), func(time.Duration) {
		saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := sessions.SaveAll(saveCtx); err != nil {
			logger.Warn("auto save incomplete", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	defer limiter.Stop()

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger), limiter.Handler())
	admin.NewHandler(sessions, sched, logger).Register(r, cfg.Server.AdminKey)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		logger.Error("final save incomplete", zap.Error(err))
	}
}
