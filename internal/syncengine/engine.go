package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	"github.com/sunyuchen88/guomaojiance/pkg/metrics"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
)

// The fetch window always closes at the end of the current day.
const windowEndSuffix = " 23:59:59"

type gateway interface {
	FetchPending(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recordStore interface {
	FindByExternalID(tx *gorm.DB, externalID int64) (*models.InspectionRecord, error)
	Create(tx *gorm.DB, record *models.InspectionRecord) error
	Update(tx *gorm.DB, record *models.InspectionRecord) error
	ReplaceItems(tx *gorm.DB, recordID uuid.UUID, items []models.InspectionItem) error
}

type auditStore interface {
	Create(ctx context.Context, entry *models.SyncAudit) error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Outcome enums.SyncOutcome `json:"outcome"`
	Fetched int               `json:"fetched"`
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Message string            `json:"message"`
}

// Engine pulls pending inspection records from the partner and reconciles
// them into local storage. At most one pass runs per process at a time;
// a second caller is rejected immediately instead of queueing.
type Engine struct {
	gateway gateway
	db      txRunner
	records recordStore
	audits  auditStore
	cfg     config.SyncConfig
	logg    *logger.Logger
	metrics *metrics.SyncJobMetrics

	now     func() time.Time
	running atomic.Bool
}

func NewEngine(gw gateway, db txRunner, records recordStore, audits auditStore, cfg config.SyncConfig, logg *logger.Logger, m *metrics.SyncJobMetrics) (*Engine, error) {
	if gw == nil {
		return nil, fmt.Errorf("partner gateway required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if audits == nil {
		return nil, fmt.Errorf("audit store required")
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 100
	}
	return &Engine{
		gateway: gw,
		db:      db,
		records: records,
		audits:  audits,
		cfg:     cfg,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Reconcile runs one fetch-and-upsert pass. Exactly one audit row is written
// per pass, success or failure; a rejected concurrent call is not a pass and
// leaves no trail. The returned error is non-nil only for the concurrency
// rejection.
func (e *Engine) Reconcile(ctx context.Context, trigger enums.SyncTrigger, operator string) (*Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, pkgerrors.New(pkgerrors.CodeSyncInFlight, "reconciliation already in progress")
	}
	defer e.running.Store(false)

	if e.logg != nil {
		ctx = e.logg.WithSyncTrigger(ctx, string(trigger))
	}

	startedAt := e.now()
	result := e.runPass(ctx, startedAt)
	finishedAt := e.now()

	e.observe(startedAt, finishedAt, result.Outcome)

	// The audit write stays outside the reconciliation transaction so the
	// trail survives a rolled-back pass.
	e.writeAudit(ctx, trigger, operator, startedAt, finishedAt, result)

	if e.logg != nil {
		fields := map[string]any{
			"outcome": result.Outcome,
			"fetched": result.Fetched,
			"created": result.Created,
			"updated": result.Updated,
		}
		if result.Outcome == enums.SyncOutcomeSuccess {
			e.logg.Info(e.logg.WithFields(ctx, fields), "reconciliation pass finished")
		} else {
			e.logg.Warn(e.logg.WithFields(ctx, fields), "reconciliation pass failed")
		}
	}

	return result, nil
}

// InFlight reports whether a pass is currently running.
func (e *Engine) InFlight() bool {
	return e.running.Load()
}

func (e *Engine) runPass(ctx context.Context, startedAt time.Time) *Result {
	windowEnd := startedAt.Format("2006-01-02") + windowEndSuffix

	pending, err := e.gateway.FetchPending(ctx, e.cfg.WindowStart, windowEnd, e.cfg.FetchLimit)
	if err != nil {
		return &Result{Outcome: enums.SyncOutcomeError, Message: errorMessage(err)}
	}

	result := &Result{
		Outcome: enums.SyncOutcomeSuccess,
		Fetched: len(pending.List),
	}

	err = e.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, obj := range pending.List {
			incoming, ok := mapRecord(obj, startedAt)
			if !ok {
				if e.logg != nil {
					e.logg.Warn(ctx, "skipping partner record without external id")
				}
				continue
			}

			existing, err := e.records.FindByExternalID(tx, incoming.ExternalID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					if err := e.records.Create(tx, incoming); err != nil {
						return fmt.Errorf("create record %d: %w", incoming.ExternalID, err)
					}
					result.Created++
					continue
				}
				return fmt.Errorf("lookup record %d: %w", incoming.ExternalID, err)
			}

			if existing.Status == enums.RecordStatusSubmitted {
				continue
			}

			mergeRecord(existing, incoming, startedAt)
			if err := e.records.Update(tx, existing); err != nil {
				return fmt.Errorf("update record %d: %w", existing.ExternalID, err)
			}
			if err := e.records.ReplaceItems(tx, existing.ID, incoming.Items); err != nil {
				return fmt.Errorf("replace items for record %d: %w", existing.ExternalID, err)
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return &Result{
			Outcome: enums.SyncOutcomeError,
			Fetched: result.Fetched,
			Message: errorMessage(err),
		}
	}

	result.Message = fmt.Sprintf("fetched %d, created %d, updated %d",
		result.Fetched, result.Created, result.Updated)
	return result
}

func (e *Engine) writeAudit(ctx context.Context, trigger enums.SyncTrigger, operator string, startedAt, finishedAt time.Time, result *Result) {
	entry := &models.SyncAudit{
		Trigger:    trigger,
		Outcome:    result.Outcome,
		Fetched:    result.Fetched,
		Created:    result.Created,
		Updated:    result.Updated,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if result.Outcome == enums.SyncOutcomeError && result.Message != "" {
		message := result.Message
		entry.ErrorText = &message
	}
	if operator != "" {
		entry.Operator = &operator
	}

	if err := e.audits.Create(ctx, entry); err != nil && e.logg != nil {
		e.logg.Error(ctx, "writing sync audit entry failed", err)
	}
}

func (e *Engine) observe(startedAt, finishedAt time.Time, outcome enums.SyncOutcome) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveDuration("reconcile", finishedAt.Sub(startedAt))
	if outcome == enums.SyncOutcomeSuccess {
		e.metrics.IncSuccess("reconcile")
	} else {
		e.metrics.IncFailure("reconcile")
	}
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
