package cron

import (
	"context"
	"fmt"

	"github.com/sunyuchen88/guomaojiance/internal/syncengine"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

type reconciler interface {
	Reconcile(ctx context.Context, trigger enums.SyncTrigger, operator string) (*syncengine.Result, error)
}

type ReconcileJobParams struct {
	Logger *logger.Logger
	Engine reconciler
}

func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("reconciliation engine required")
	}
	return &reconcileJob{logg: params.Logger, engine: params.Engine}, nil
}

type reconcileJob struct {
	logg   *logger.Logger
	engine reconciler
}

func (j *reconcileJob) Name() string { return "partner-reconcile" }

func (j *reconcileJob) Run(ctx context.Context) error {
	result, err := j.engine.Reconcile(ctx, enums.SyncTriggerAutomatic, "")
	if err != nil {
		// A manual pass already holds the slot; the next tick retries.
		if pkgerrors.HasCode(err, pkgerrors.CodeSyncInFlight) {
			j.logg.Info(ctx, "reconciliation already in progress; skipping cycle")
			return nil
		}
		return fmt.Errorf("reconcile: %w", err)
	}

	if result.Outcome == enums.SyncOutcomeError {
		return fmt.Errorf("reconcile pass failed: %s", result.Message)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"fetched": result.Fetched,
		"created": result.Created,
		"updated": result.Updated,
	})
	j.logg.Info(logCtx, "reconcile pass complete")
	return nil
}
