package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/api/middleware"
	"github.com/sunyuchen88/guomaojiance/api/responses"
	"github.com/sunyuchen88/guomaojiance/api/validators"
	"github.com/sunyuchen88/guomaojiance/internal/audit"
	"github.com/sunyuchen88/guomaojiance/internal/syncengine"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	pkgpagination "github.com/sunyuchen88/guomaojiance/pkg/pagination"
)

type reconcileEngine interface {
	Reconcile(ctx context.Context, trigger enums.SyncTrigger, operator string) (*syncengine.Result, error)
}

// SyncTrigger starts a manual reconciliation pass. A pass already in flight
// is rejected with a conflict rather than queued.
func SyncTrigger(engine reconcileEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync engine unavailable"))
			return
		}

		operator := middleware.UsernameFromContext(r.Context())
		result, err := engine.Reconcile(r.Context(), enums.SyncTriggerManual, operator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type auditLister interface {
	List(ctx context.Context, params audit.ListParams) ([]models.SyncAudit, error)
}

type syncAuditResponse struct {
	ID         uuid.UUID         `json:"id"`
	Trigger    enums.SyncTrigger `json:"trigger"`
	Outcome    enums.SyncOutcome `json:"outcome"`
	Fetched    int               `json:"fetched"`
	Created    int               `json:"created"`
	Updated    int               `json:"updated"`
	ErrorText  *string           `json:"error_text"`
	Operator   *string           `json:"operator"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

type syncAuditListResponse struct {
	Items  []syncAuditResponse `json:"items"`
	Cursor string              `json:"cursor"`
}

// SyncAuditList returns reconciliation history newest first.
func SyncAuditList(repo auditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit repository unavailable"))
			return
		}

		params := audit.ListParams{}
		if raw := strings.TrimSpace(r.URL.Query().Get("trigger")); raw != "" {
			trigger, err := enums.ParseSyncTrigger(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid trigger filter"))
				return
			}
			params.Trigger = trigger
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("outcome")); raw != "" {
			outcome, err := enums.ParseSyncOutcome(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome filter"))
				return
			}
			params.Outcome = outcome
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pkgpagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		rows, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sync audit"))
			return
		}

		normalized := pkgpagination.NormalizeLimit(limit)
		nextCursor := ""
		if len(rows) > normalized {
			nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
				CreatedAt: rows[normalized].CreatedAt,
				ID:        rows[normalized].ID,
			})
			rows = rows[:normalized]
		}

		items := make([]syncAuditResponse, len(rows))
		for i, row := range rows {
			items[i] = syncAuditResponse{
				ID:         row.ID,
				Trigger:    row.Trigger,
				Outcome:    row.Outcome,
				Fetched:    row.Fetched,
				Created:    row.Created,
				Updated:    row.Updated,
				ErrorText:  row.ErrorText,
				Operator:   row.Operator,
				StartedAt:  row.StartedAt,
				FinishedAt: row.FinishedAt,
				CreatedAt:  row.CreatedAt,
			}
		}

		responses.WriteSuccess(w, syncAuditListResponse{Items: items, Cursor: nextCursor})
	}
}
