package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunyuchen88/guomaojiance/internal/syncengine"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
)

type stubReconciler struct {
	trigger enums.SyncTrigger
	result  *syncengine.Result
	err     error
}

func (s *stubReconciler) Reconcile(ctx context.Context, trigger enums.SyncTrigger, operator string) (*syncengine.Result, error) {
	s.trigger = trigger
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestReconcileJobRunsAutomaticTrigger(t *testing.T) {
	engine := &stubReconciler{result: &syncengine.Result{
		Outcome: enums.SyncOutcomeSuccess,
		Fetched: 3,
		Created: 1,
		Updated: 2,
	}}
	job, err := NewReconcileJob(ReconcileJobParams{Logger: testLogger(), Engine: engine})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, enums.SyncTriggerAutomatic, engine.trigger)
}

func TestReconcileJobTreatsInFlightAsSkip(t *testing.T) {
	engine := &stubReconciler{err: pkgerrors.New(pkgerrors.CodeSyncInFlight, "busy")}
	job, err := NewReconcileJob(ReconcileJobParams{Logger: testLogger(), Engine: engine})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
}

func TestReconcileJobSurfacesFailedPass(t *testing.T) {
	engine := &stubReconciler{result: &syncengine.Result{
		Outcome: enums.SyncOutcomeError,
		Message: "partner unreachable",
	}}
	job, err := NewReconcileJob(ReconcileJobParams{Logger: testLogger(), Engine: engine})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "partner unreachable")
}
