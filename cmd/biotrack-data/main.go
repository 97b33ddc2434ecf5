package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biotrack-data/internal/config"
	"biotrack-data/internal/database"
	httpapi "biotrack-data/internal/http"
	"biotrack-data/internal/logger"
	"biotrack-data/internal/repository"
	"biotrack-data/internal/seed"
	"biotrack-data/internal/service"
	"biotrack-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "biotrack-data")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// Storage: Postgres when configured and reachable, in-memory otherwise.
	var (
		db               *sql.DB
		biomarkersRepo   repository.BiomarkersRepository
		rangesRepo       repository.ReferenceRangesRepository
		conversionsRepo  repository.UnitConversionsRepository
		measurementsRepo repository.MeasurementsRepository
		personsRepo      repository.PersonsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for biotrack-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		biomarkersRepo = repository.NewPostgresBiomarkersRepo(db)
		rangesRepo = repository.NewPostgresReferenceRangesRepo(db)
		conversionsRepo = repository.NewPostgresUnitConversionsRepo(db)
		measurementsRepo = repository.NewPostgresMeasurementsRepo(db)
		personsRepo = repository.NewPostgresPersonsRepo(db)
	} else {
		biomarkersRepo = repository.NewMemoryBiomarkersRepo()
		rangesRepo = repository.NewMemoryReferenceRangesRepo()
		conversionsRepo = repository.NewMemoryUnitConversionsRepo()
		measurementsRepo = repository.NewMemoryMeasurementsRepo()
		personsRepo = repository.NewMemoryPersonsRepo()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seed.Load(ctx, biomarkersRepo, rangesRepo, conversionsRepo, log); err != nil {
		log.Warn("catalog seeding failed", zap.Error(err))
	}

	normalizeSvc := service.NewNormalizeService(biomarkersRepo, rangesRepo, conversionsRepo, log)
	compositeSvc := service.NewCompositeService(biomarkersRepo, measurementsRepo, log)
	bioageSvc := service.NewBioAgeService(biomarkersRepo, measurementsRepo, log)
	ingestSvc := service.NewIngestService(normalizeSvc, compositeSvc, biomarkersRepo, measurementsRepo, log)
	exportSvc := service.NewExportService(biomarkersRepo, measurementsRepo, log)
	wearableClient := service.NewWearableClient(
		cfg.Wearable.BaseURL, cfg.Wearable.ClientID,
		cfg.Wearable.ClientSecret, cfg.Wearable.RedirectURI, log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterBioAgeRoutes(httpapi.NewBioAgeHandler(personsRepo, bioageSvc, kv, log))
	router.RegisterMeasurementRoutes(httpapi.NewMeasurementsHandler(
		personsRepo, measurementsRepo, biomarkersRepo,
		normalizeSvc, compositeSvc, ingestSvc, kv, log,
	))
	router.RegisterCatalogRoutes(httpapi.NewCatalogHandler(biomarkersRepo, normalizeSvc, log))
	router.RegisterWearableRoutes(httpapi.NewWearableHandler(personsRepo, wearableClient, ingestSvc, kv, log))
	router.RegisterExportRoutes(httpapi.NewExportHandler(personsRepo, exportSvc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
