package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliotracker/folio/internal/clients/marketdata"
	"github.com/foliotracker/folio/internal/config"
	"github.com/foliotracker/folio/internal/database"
	"github.com/foliotracker/folio/internal/modules/holdings"
	"github.com/foliotracker/folio/internal/modules/indexdata"
	"github.com/foliotracker/folio/internal/modules/portfolio"
	"github.com/foliotracker/folio/internal/modules/refdata"
	"github.com/foliotracker/folio/internal/modules/tradebook"
	"github.com/foliotracker/folio/internal/scheduler"
	"github.com/foliotracker/folio/internal/server"
	"github.com/foliotracker/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrapLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting folio")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "folio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Collaborators
	client := marketdata.NewClient(marketdata.Config{
		BaseURL:   cfg.ProviderBaseURL,
		Nifty50:   cfg.BenchmarkSymbols.Nifty50,
		BSESensex: cfg.BenchmarkSymbols.BSESensex,
		NiftyBank: cfg.BenchmarkSymbols.NiftyBank,
	}, log)

	cacheTTL := time.Duration(cfg.CacheTTLHours) * time.Hour
	refdataService := refdata.NewService(refdata.NewRepository(db.Conn(), log), client, cacheTTL, log)
	indexService := indexdata.NewService(indexdata.NewRepository(db.Conn(), log), client, log)

	// Reconstruction pipeline
	loader := tradebook.NewLoader(cfg.DataDir, log)
	builder := holdings.NewBuilder(holdings.Options{
		RiskFreeRate: cfg.RiskFreeRate,
		CostModel:    holdings.CostModel(cfg.CostModel),
	}, log)
	holdingsService := holdings.NewService(loader, refdataService, indexService, builder, cfg.Workers, log)
	holdingsHandler := holdings.NewHandler(holdingsService, log)
	portfolioHandler := portfolio.NewHandler(holdingsHandler, portfolio.Options{
		NormalizeWeights: cfg.NormalizeWeights,
	}, log)

	// Background refresh
	refreshJob := scheduler.NewRefreshJob(
		loader,
		refdataService,
		indexService,
		scheduler.RebuildFunc(func() error {
			_, err := holdingsHandler.Refresh()
			return err
		}),
		log,
	)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Holdings:  holdingsHandler,
		Portfolio: portfolioHandler,
		Refresh:   refreshJob,
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
