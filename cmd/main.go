package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/pagetone/pagetone-backend/internal/config"
	"github.com/pagetone/pagetone-backend/internal/db"
	"github.com/pagetone/pagetone-backend/internal/handlers"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/middleware"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/server"
	"github.com/pagetone/pagetone-backend/internal/services"
	"github.com/pagetone/pagetone-backend/internal/types"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Could not load config", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	// Repos
	log.Info("Setting up Repos from main...")
	bookRepo := repos.NewBookRepo(thePG, log)
	sectionRepo := repos.NewSectionRepo(thePG, log)
	sectionAssetRepo := repos.NewSectionAssetRepo(thePG, log)
	summaryRepo := repos.NewSummaryRepo(thePG, log)
	summaryVersionRepo := repos.NewSummaryVersionRepo(thePG, log)
	audioAssetRepo := repos.NewAudioAssetRepo(thePG, log)
	progressRepo := repos.NewReadingProgressRepo(thePG, log)
	noteRepo := repos.NewNoteRepo(thePG, log)
	jobRunRepo := repos.NewJobRunRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	mediaTools := services.NewMediaToolsService(log, cfg.PiperBin, cfg.TTSBackend == "piper" && cfg.PiperModel != "")
	if err := mediaTools.AssertReady(context.Background()); err != nil {
		log.Fatal("Media tools not ready", "error", err)
	}
	documentService := services.NewDocumentService(log)
	textProvider, err := services.NewTextProvider(cfg, log)
	if err != nil {
		log.Fatal("Could not init text provider", "error", err)
	}
	synthesizer, err := services.NewSpeechSynthesizer(cfg, log, mediaTools)
	if err != nil {
		log.Fatal("Could not init speech synthesizer", "error", err)
	}
	defer synthesizer.Close()

	jobService := services.NewJobService(log, jobRunRepo)
	ingestionService := services.NewIngestionService(log, thePG, bookRepo, sectionRepo, sectionAssetRepo, progressRepo, documentService, mediaTools, cfg.ImageDir)
	summaryService := services.NewSummaryService(log, thePG, bookRepo, sectionRepo, sectionAssetRepo, summaryRepo, summaryVersionRepo, audioAssetRepo, documentService, textProvider, cfg.MaxSummaryChars, cfg.LargeContentThreshold)
	ttsService := services.NewTTSService(log, summaryVersionRepo, summaryRepo, sectionRepo, audioAssetRepo, synthesizer, cfg.AudioDir)
	sectionService := services.NewSectionService(log, sectionRepo, sectionAssetRepo)
	bookService := services.NewBookService(log, thePG, bookRepo, sectionRepo, sectionAssetRepo, summaryRepo, summaryVersionRepo, audioAssetRepo, progressRepo, noteRepo, jobRunRepo, jobService, cfg.PDFDir, cfg.ImageDir, cfg.AudioDir)
	noteService := services.NewNoteService(log, bookRepo, sectionRepo, noteRepo)
	qaService := services.NewQAService(log, bookRepo, textProvider)
	pageSyncService := services.NewPageSyncService(log, redisClient)

	// Worker pool
	log.Info("Setting up job worker from main...")
	worker := services.NewJobWorker(log, jobRunRepo, cfg.WorkerCount, cfg.JobMaxAttempts)
	worker.Register(types.JobTypeBookIngest, func(ctx context.Context, job *types.JobRun) (map[string]interface{}, error) {
		if err := ingestionService.IngestBook(ctx, job.EntityID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"book_id": job.EntityID}, nil
	})
	worker.Register(types.JobTypeSummaryGenerate, func(ctx context.Context, job *types.JobRun) (map[string]interface{}, error) {
		var payload struct {
			Recursive bool `json:"recursive"`
		}
		if len(job.Payload) > 0 {
			if err := json.Unmarshal(job.Payload, &payload); err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
		}
		result, err := summaryService.Generate(ctx, job.EntityID, payload.Recursive)
		if err != nil {
			return nil, err
		}
		out := map[string]interface{}{}
		if result.Version != nil {
			out["version_id"] = result.Version.ID
			out["version_number"] = result.Version.VersionNumber
		}
		if result.Warning != "" {
			out["warning"] = result.Warning
			out["overview"] = result.Overview
		}
		return out, nil
	})
	worker.Register(types.JobTypeTTSGenerate, func(ctx context.Context, job *types.JobRun) (map[string]interface{}, error) {
		asset, err := ttsService.GenerateAudio(ctx, job.EntityID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"audio_asset_id": asset.ID,
			"file_path":      asset.FilePath,
			"format":         asset.Format,
		}, nil
	})
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go func() {
		if err := worker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error("Job worker exited", "error", err)
		}
	}()

	// Handlers
	log.Info("Setting up handlers from main...")
	bookHandler := handlers.NewBookHandler(bookService, noteService, qaService)
	sectionHandler := handlers.NewSectionHandler(sectionService, summaryService, jobService)
	summaryHandler := handlers.NewSummaryHandler(summaryService, ttsService, jobService)
	assetHandler := handlers.NewAssetHandler(sectionAssetRepo)
	jobHandler := handlers.NewJobHandler(jobService)
	syncHandler := handlers.NewSyncHandler(pageSyncService)

	// Middleware
	log.Info("Setting up middleware from main...")
	rateLimit := middleware.NewRateLimit(log, redisClient, cfg.RateLimitPerMin)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		BookHandler:    bookHandler,
		SectionHandler: sectionHandler,
		SummaryHandler: summaryHandler,
		AssetHandler:   assetHandler,
		JobHandler:     jobHandler,
		SyncHandler:    syncHandler,
		RateLimit:      rateLimit,
		CORSOrigins:    cfg.CORSOrigins,
		Production:     cfg.IsProduction(),
	})

	fmt.Printf("Server listening on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
