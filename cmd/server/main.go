package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/clients/marketdata"
	"github.com/sagarwalke-dev/portfolio-engine/internal/config"
	"github.com/sagarwalke-dev/portfolio-engine/internal/database"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/aggregation"
	aggregationhandlers "github.com/sagarwalke-dev/portfolio-engine/internal/modules/aggregation/handlers"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals"
	goalshandlers "github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals/handlers"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/ledger"
	ledgerhandlers "github.com/sagarwalke-dev/portfolio-engine/internal/modules/ledger/handlers"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/watchlist"
	watchlisthandlers "github.com/sagarwalke-dev/portfolio-engine/internal/modules/watchlist/handlers"
	"github.com/sagarwalke-dev/portfolio-engine/internal/quotecache"
	"github.com/sagarwalke-dev/portfolio-engine/internal/reliability"
	"github.com/sagarwalke-dev/portfolio-engine/internal/scheduler"
	"github.com/sagarwalke-dev/portfolio-engine/internal/server"
	"github.com/sagarwalke-dev/portfolio-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true, Service: "portfolio-engine"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.DevMode,
		Service: "portfolio-engine",
	})

	log.Info().Msg("Starting portfolio engine")

	// Databases. The ledger gets full durability, the quote cache trades
	// durability for speed, everything else runs the standard profile.
	ledgerDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	defer ledgerDB.Close()

	coreDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "core.db"),
		Profile: database.ProfileStandard,
		Name:    "core",
	})
	defer coreDB.Close()

	cacheDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	defer cacheDB.Close()

	databases := map[string]*database.DB{
		"ledger": ledgerDB,
		"core":   coreDB,
		"cache":  cacheDB,
	}

	// Repositories and services
	cacheRepo := quotecache.NewRepository(cacheDB.Conn())
	priceClient := marketdata.NewClient(cfg.MarketDataURL, cfg.QuoteTimeout, cacheRepo, log)

	ledgerRepo := ledger.NewRepository(ledgerDB.Conn(), log)
	ledgerService := ledger.NewService(ledgerRepo, log)

	goalsRepo := goals.NewRepository(coreDB.Conn(), log)
	goalsService := goals.NewService(goalsRepo, log)

	watchlistRepo := watchlist.NewRepository(coreDB.Conn(), log)
	watchlistService := watchlist.NewService(watchlistRepo, log)

	aggregationService := aggregation.NewService(
		ledgerService,
		goalsService,
		watchlistService,
		priceClient,
		cfg.QuoteMaxAge,
		log,
	)

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, cfg, databases, cacheRepo, watchlistService, priceClient, log)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Log:     log,
		Modules: []server.RouteRegistrar{
			ledgerhandlers.NewHandler(ledgerService, log),
			goalshandlers.NewHandler(goalsService, log),
			watchlisthandlers.NewHandler(watchlistService, priceClient, log),
			aggregationhandlers.NewHandler(aggregationService, log),
		},
		System: server.NewSystemHandlers(databases, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func mustOpenDB(log zerolog.Logger, cfg database.Config) *database.DB {
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to run migrations")
	}
	return db
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	databases map[string]*database.DB,
	cacheRepo *quotecache.Repository,
	watchlistService *watchlist.Service,
	priceClient *marketdata.Client,
	log zerolog.Logger,
) {
	mustAddJob(sched, log, "0 */5 * * * *",
		scheduler.NewRefreshQuotesJob(watchlistService, priceClient, 30*time.Second, log))

	allDBs := []*database.DB{databases["ledger"], databases["core"], databases["cache"]}
	mustAddJob(sched, log, "0 0 * * * *", scheduler.NewWALCheckpointJob(allDBs, log))
	mustAddJob(sched, log, "0 30 * * * *", scheduler.NewCacheCleanupJob(cacheRepo, log))

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}

		backupService := reliability.NewBackupService(s3Client, databases, cfg.DataDir, log)
		mustAddJob(sched, log, "0 0 3 * * *",
			scheduler.NewBackupJob(backupService, cfg.Backup.RetentionDays, log))
	}
}

func mustAddJob(sched *scheduler.Scheduler, log zerolog.Logger, schedule string, job scheduler.Job) {
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
