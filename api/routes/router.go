package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sunyuchen88/guomaojiance/api/controllers"
	"github.com/sunyuchen88/guomaojiance/api/middleware"
	"github.com/sunyuchen88/guomaojiance/internal/audit"
	"github.com/sunyuchen88/guomaojiance/internal/auth"
	"github.com/sunyuchen88/guomaojiance/internal/exports"
	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/internal/reports"
	"github.com/sunyuchen88/guomaojiance/internal/submission"
	"github.com/sunyuchen88/guomaojiance/internal/syncengine"
	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/db"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	"github.com/sunyuchen88/guomaojiance/pkg/redis"
)

type sessionManager interface {
	Exists(ctx context.Context, accessID string) (bool, error)
}

// Deps collects everything the HTTP surface needs wired in.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions sessionManager

	AuthService    auth.Service
	RecordsService records.Service
	SyncEngine     *syncengine.Engine
	SubmitEngine   *submission.Engine
	AuditRepo      *audit.Repository
	ReportsService *reports.Service
	ExportService  *exports.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/records", func(r chi.Router) {
			r.Get("/", controllers.RecordList(deps.RecordsService, logg))
			r.Get("/counts", controllers.RecordStatusCounts(deps.RecordsService, logg))
			r.Get("/export", controllers.RecordExport(deps.ExportService, logg))
			r.Get("/{recordId}", controllers.RecordDetail(deps.RecordsService, logg))
			r.Post("/{recordId}/result", controllers.RecordResultEntry(deps.RecordsService, logg))
			r.Post("/{recordId}/report", controllers.ReportUpload(deps.ReportsService, deps.RecordsService, logg))
			r.Post("/{recordId}/submit", controllers.RecordSubmit(deps.SubmitEngine, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.SyncTrigger(deps.SyncEngine, logg))
			r.Get("/audit", controllers.SyncAuditList(deps.AuditRepo, logg))
		})

		r.Get("/reports/*", controllers.ReportDownload(deps.ReportsService, logg))
	})

	return r
}
