package main

import (
	"context"
	"errors"
	"log"
	"os"

	"woolreport/cmd/controllers"
	"woolreport/internal/config"
	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/repo"
	"woolreport/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const defaultConfigPath = "secrets.json"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer appLog.Sync()

	db, err := repo.Connect(cfg.DBDSN)
	if err != nil {
		appLog.Fatal("connect to database", "error", err)
	}

	if err := repo.Migrate(db, cfg.ReferenceSeed); err != nil {
		appLog.Fatal("migrate database", "error", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLog.Fatal("open sql handle", "error", err)
	}

	m := metrics.New()

	logService, err := services.NewLogService(db)
	if err != nil {
		appLog.Fatal("create log service", "error", err)
	}

	referenceService, err := services.NewReferenceService(db, logService, appLog)
	if err != nil {
		appLog.Fatal("create reference service", "error", err)
	}

	reportService, err := services.NewReportService(db, logService, appLog, m)
	if err != nil {
		appLog.Fatal("create report service", "error", err)
	}

	deletionService, err := services.NewDeletionService(db, logService, appLog, m)
	if err != nil {
		appLog.Fatal("create deletion service", "error", err)
	}

	importService, err := services.NewProducerImportService(logService, appLog, m)
	if err != nil {
		appLog.Fatal("create producer import service", "error", err)
	}

	archiveService, err := services.NewArchiveService(reportService, logService, appLog, m, cfg.ArchiveAfterDays)
	if err != nil {
		appLog.Fatal("create archive service", "error", err)
	}

	reportsController, err := controllers.NewReportsController(reportService, deletionService)
	if err != nil {
		appLog.Fatal("create reports controller", "error", err)
	}

	referencesController, err := controllers.NewReferencesController(referenceService)
	if err != nil {
		appLog.Fatal("create references controller", "error", err)
	}

	importsController, err := controllers.NewImportsController(importService)
	if err != nil {
		appLog.Fatal("create imports controller", "error", err)
	}

	logsController, err := controllers.NewLogsController(logService)
	if err != nil {
		appLog.Fatal("create logs controller", "error", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), controllers.RequestLogger(appLog))

	if err := controllers.RegisterHealthRoutes(router, sqlDB); err != nil {
		appLog.Fatal("register health routes", "error", err)
	}
	if err := controllers.RegisterMetricsRoutes(router, m.Registry); err != nil {
		appLog.Fatal("register metrics routes", "error", err)
	}
	if err := reportsController.RegisterRoutes(router); err != nil {
		appLog.Fatal("register reports routes", "error", err)
	}
	if err := referencesController.RegisterRoutes(router); err != nil {
		appLog.Fatal("register references routes", "error", err)
	}
	if err := importsController.RegisterRoutes(router); err != nil {
		appLog.Fatal("register imports routes", "error", err)
	}
	if err := logsController.RegisterRoutes(router); err != nil {
		appLog.Fatal("register logs routes", "error", err)
	}

	if cfg.OpenAIAPIKey == "" {
		appLog.Warn("openai_api_key not set; insight composition disabled")
	} else {
		composer, err := services.NewInsightComposer(cfg.OpenAIAPIKey, cfg.OpenAIModel, logService, nil, "")
		if err != nil {
			appLog.Fatal("create insight composer", "error", err)
		}
		insightsController, err := controllers.NewInsightsController(composer)
		if err != nil {
			appLog.Fatal("create insights controller", "error", err)
		}
		if err := insightsController.RegisterRoutes(router); err != nil {
			appLog.Fatal("register insights routes", "error", err)
		}
	}

	scheduler, err := startCron(cfg.ArchiveSchedule, archiveService, appLog)
	if err != nil {
		appLog.Fatal("start cron", "error", err)
	}
	defer scheduler.Stop()

	appLog.Info("listening", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		appLog.Fatal("run server", "error", err)
	}
}

type archiveSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

func startCron(schedule string, sweeper archiveSweeper, appLog *logger.Logger) (*cron.Cron, error) {
	if sweeper == nil {
		return nil, errors.New("archive service is nil")
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := sweeper.Sweep(context.Background()); err != nil {
			appLog.Error("archive sweep", "error", err)
		}
	}); err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
