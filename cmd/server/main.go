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

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/auth"
	"github.com/frontier-realms/world-server/internal/buildqueue"
	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/config"
	deliveryhttp "github.com/frontier-realms/world-server/internal/delivery/http"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/logger"
	"github.com/frontier-realms/world-server/internal/movement"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/scheduler"
	"github.com/frontier-realms/world-server/internal/store"
	"github.com/frontier-realms/world-server/internal/trainqueue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logger.Init(nil); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Shutdown()
	zlog := logger.Get()

	db, err := store.Open(cfg.Database)
	if err != nil {
		zlog.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx, db); err != nil {
		zlog.Fatal("run migrations", zap.Error(err))
	}
	if err := store.SeedCatalog(ctx, db, catalog.DefaultTroopDefinitions()); err != nil {
		zlog.Fatal("seed catalog", zap.Error(err))
	}
	cat, err := store.LoadCatalog(ctx, db)
	if err != nil {
		zlog.Fatal("load catalog", zap.Error(err))
	}

	users := store.NewUserStore(db)
	villages := store.NewVillageStore(db, zlog)
	buildings := store.NewBuildingStore(db)
	troops := store.NewTroopStore(db)
	armies := store.NewArmyStore(db)
	reports := store.NewReportStore(db)

	resources := resource.NewEngine(db, villages, buildings, zlog)
	buildQueue := buildqueue.NewEngine(db, villages, buildings, resources, zlog)
	trainQueue := trainqueue.NewEngine(db, villages, buildings, troops, resources, cat, zlog)
	movementEngine := movement.NewEngine(db, villages, buildings, troops, armies, reports, resources, cat, zlog)

	publisher, err := events.NewPublisher(cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal("connect redis publisher", zap.Error(err))
	}
	defer publisher.Close()

	verifier := auth.NewVerifier(cfg.JWT)

	sched := scheduler.New(buildQueue, trainQueue, movementEngine, resources, zlog)
	schedCtx, schedCancel := context.WithCancel(ctx)
	sched.Start(schedCtx)

	router := deliveryhttp.NewRouter(deliveryhttp.Dependencies{
		Logger:     zlog,
		Verifier:   verifier,
		Users:      users,
		Villages:   villages,
		Buildings:  buildings,
		Troops:     troops,
		Armies:     armies,
		Reports:    reports,
		Resources:  resources,
		BuildQueue: buildQueue,
		TrainQueue: trainQueue,
		Movement:   movementEngine,
		Publisher:  publisher,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zlog.Info("server listening", zap.Int("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down")
	schedCancel()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
