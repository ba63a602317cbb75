package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/sunyuchen88/guomaojiance/api/routes"
	"github.com/sunyuchen88/guomaojiance/internal/audit"
	"github.com/sunyuchen88/guomaojiance/internal/auth"
	"github.com/sunyuchen88/guomaojiance/internal/exports"
	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/internal/reports"
	"github.com/sunyuchen88/guomaojiance/internal/submission"
	"github.com/sunyuchen88/guomaojiance/internal/syncengine"
	"github.com/sunyuchen88/guomaojiance/internal/users"
	"github.com/sunyuchen88/guomaojiance/pkg/auth/session"
	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/db"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	"github.com/sunyuchen88/guomaojiance/pkg/migrate"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
	"github.com/sunyuchen88/guomaojiance/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager := session.NewManager(redisClient, cfg.JWT)

	authService, err := auth.NewService(users.NewRepository(dbClient.DB()), sessionManager, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	recordsRepo := records.NewRepository(dbClient.DB())
	recordsService, err := records.NewService(recordsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create records service", err)
		os.Exit(1)
	}

	auditRepo := audit.NewRepository(dbClient.DB())
	partnerClient := partner.NewClient(cfg.Partner, logg)

	syncEngine, err := syncengine.NewEngine(partnerClient, dbClient, recordsRepo, auditRepo, cfg.Sync, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync engine", err)
		os.Exit(1)
	}

	submitEngine, err := submission.NewEngine(partnerClient, dbClient, recordsRepo, cfg.Submit, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create submission engine", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(cfg.Reports, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	exportService, err := exports.NewService(recordsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create export service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Sessions:       sessionManager,
			AuthService:    authService,
			RecordsService: recordsService,
			SyncEngine:     syncEngine,
			SubmitEngine:   submitEngine,
			AuditRepo:      auditRepo,
			ReportsService: reportsService,
			ExportService:  exportService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
