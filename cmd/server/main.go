package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/api"
	"github.com/Unkno394/QuizBattleee/internal/auth"
	"github.com/Unkno394/QuizBattleee/internal/config"
	"github.com/Unkno394/QuizBattleee/internal/events"
	"github.com/Unkno394/QuizBattleee/internal/gateway"
	"github.com/Unkno394/QuizBattleee/internal/identity"
	"github.com/Unkno394/QuizBattleee/internal/observability"
	"github.com/Unkno394/QuizBattleee/internal/questions"
	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/room"
	"github.com/Unkno394/QuizBattleee/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	fmt.Println("==================================================")
	fmt.Println("   QUIZ ROOM SERVER STARTING                      ")
	fmt.Println("==================================================")

	cfg := config.Load()
	logger, err := observability.SetupLogger()
	if err != nil {
		log.Fatalf("cannot init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := observability.SetupTracerProvider(ctx, "quizbattle", cfg.TraceStdout, logger)
	if err != nil {
		logger.Fatal("cannot init tracer", zap.Error(err))
	}
	defer tp.Shutdown(ctx)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer.(*prometheus.Registry))
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	resolver := identity.NewJWTResolver(jwtMgr)

	var durable store.DurableStore
	var hot store.HotCache
	db, err := store.ConnectMySQL(cfg.DBDSN)
	if err != nil {
		logger.Warn("cannot connect db, falling back to IN-MEMORY MODE", zap.Error(err))
		mem := store.NewMemoryStore()
		durable, hot = mem, mem
	} else {
		defer db.Close()
		durable = store.NewMySQLDurableStore(db)
		redisCache := store.NewRedisHotCache(cfg.RedisAddr, cfg.RedisDB)
		defer redisCache.Close()
		hot = redisCache
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		slogLogger := observability.ZapToSlog(logger)
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, "quizbattle_events", slogLogger)
		if err != nil {
			logger.Warn("cannot connect amqp, notifications disabled", zap.Error(err))
		} else {
			publisher = amqpPub
			defer amqpPub.Close()
		}
	}

	rngSrc := rng.Crypto{}
	provisioner := questions.NewCatalogProvisioner(questions.DefaultCatalog(), rngSrc)

	deps := room.Deps{
		Clock:         room.SystemClock{},
		RNG:           rngSrc,
		Identity:      resolver,
		Hot:           hot,
		Durable:       durable,
		Publisher:     publisher,
		Provisioner:   provisioner,
		Logger:        logger,
		Metrics:       metrics,
		MaxPlayers:    cfg.MaxPlayers,
		DBIntervalMS:  cfg.DBIntervalMS,
		HotIntervalMS: cfg.HotIntervalMS,
		HotCacheTTL:   int64(cfg.HotCacheTTL / time.Millisecond),
		JoinTimeoutMS: int64(cfg.JoinTimeout / time.Millisecond),
	}

	roomMgr := room.NewRoomManager(ctx, deps)
	defer roomMgr.Close()

	wsServer := gateway.NewServer(roomMgr, resolver, logger, metrics, cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.JoinTimeout)
	server := api.NewServer(roomMgr, provisioner, rngSrc, logger, wsServer)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router}
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	roomMgr.ShutdownAll(shutdownCtx)
}
