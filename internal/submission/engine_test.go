package submission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
)

type stubGateway struct {
	calls  int
	submit func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error)
}

func (s *stubGateway) SubmitResults(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
	s.calls++
	return s.submit(ctx, batch)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRecordStore struct {
	record  *models.InspectionRecord
	findErr error
	updated *models.InspectionRecord
}

func (s *stubRecordStore) FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.record, nil
}

func (s *stubRecordStore) Update(tx *gorm.DB, record *models.InspectionRecord) error {
	s.updated = record
	return nil
}

func resultedRecord() *models.InspectionRecord {
	overall := "合格"
	judgment := "合格"
	measured := "0.02"
	report := "https://reports/abc.pdf"
	return &models.InspectionRecord{
		ID:              uuid.New(),
		ExternalID:      1,
		UnionNumber:     "U1",
		Status:          enums.RecordStatusResulted,
		OverallResult:   &overall,
		ReportReference: &report,
		Items: []models.InspectionItem{{
			ID:            uuid.New(),
			ItemID:        3,
			Name:          "铅",
			Judgment:      &judgment,
			MeasuredValue: &measured,
		}},
	}
}

func newTestEngine(t *testing.T, gw *stubGateway, store *stubRecordStore) *Engine {
	t.Helper()
	engine, err := NewEngine(gw, stubTxRunner{}, store, config.SubmitConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return engine
}

func TestSubmitFinalizesRecordOnAck(t *testing.T) {
	store := &stubRecordStore{record: resultedRecord()}
	var gotBatch partner.SubmitBatch
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			gotBatch = batch
			return &partner.Ack{Message: "提交成功"}, nil
		},
	}
	engine := newTestEngine(t, gw, store)
	engine.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	}

	result, err := engine.Submit(context.Background(), store.record.ID, "op")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "提交成功", result.Message)

	require.NotNil(t, store.updated)
	require.Equal(t, enums.RecordStatusSubmitted, store.updated.Status)

	require.Equal(t, "U1", gotBatch.CheckNoJoin)
	require.Equal(t, 1, gotBatch.CheckNum)
	require.Len(t, gotBatch.Goods, 1)
	good := gotBatch.Goods[0]
	require.Equal(t, "U1", good.CheckNo)
	require.Equal(t, "2025-06-15 10:00:00", good.CheckTime)
	require.Equal(t, "合格", good.CheckResult)
	require.Equal(t, "https://reports/abc.pdf", good.CheckResultURL)
	require.Len(t, good.Items, 1)
	require.Equal(t, "合格", good.Items[0].ItemRes)
	require.Equal(t, "0.02", good.Items[0].ItemIndicator)
}

func TestSubmitPendingRecordFailsBeforeGatewayCall(t *testing.T) {
	record := resultedRecord()
	record.Status = enums.RecordStatusPending
	store := &stubRecordStore{record: record}
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			t.Fatal("gateway must not be called")
			return nil, nil
		},
	}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), record.ID, "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, "record not yet resulted", pkgerrors.As(err).Message())
	require.Zero(t, gw.calls)
}

func TestSubmitAlreadySubmittedFailsBeforeGatewayCall(t *testing.T) {
	record := resultedRecord()
	record.Status = enums.RecordStatusSubmitted
	store := &stubRecordStore{record: record}
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			t.Fatal("gateway must not be called")
			return nil, nil
		},
	}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), record.ID, "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, "record already submitted", pkgerrors.As(err).Message())
	require.Zero(t, gw.calls)
}

func TestSubmitMissingOverallResultFailsBeforeGatewayCall(t *testing.T) {
	record := resultedRecord()
	record.OverallResult = nil
	store := &stubRecordStore{record: record}
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			t.Fatal("gateway must not be called")
			return nil, nil
		},
	}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), record.ID, "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Zero(t, gw.calls)
}

func TestSubmitNotFound(t *testing.T) {
	store := &stubRecordStore{findErr: gorm.ErrRecordNotFound}
	gw := &stubGateway{}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), uuid.New(), "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSubmitRetriesTransportFailuresUpToMaxAttempts(t *testing.T) {
	store := &stubRecordStore{record: resultedRecord()}
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			return nil, pkgerrors.New(pkgerrors.CodeTransport, "connection refused")
		},
	}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), store.record.ID, "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTransport))
	require.Equal(t, "submission failed after 3 attempts", pkgerrors.As(err).Message())
	require.Equal(t, 3, gw.calls)
	require.Nil(t, store.updated)
}

func TestSubmitRecoversAfterTransientTransportFailure(t *testing.T) {
	store := &stubRecordStore{record: resultedRecord()}
	gw := &stubGateway{}
	gw.submit = func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
		if gw.calls < 2 {
			return nil, pkgerrors.New(pkgerrors.CodeTransport, "timeout")
		}
		return &partner.Ack{Message: "ok"}, nil
	}
	engine := newTestEngine(t, gw, store)

	result, err := engine.Submit(context.Background(), store.record.ID, "")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, gw.calls)
}

func TestSubmitPartnerRejectionIsNotRetried(t *testing.T) {
	store := &stubRecordStore{record: resultedRecord()}
	gw := &stubGateway{
		submit: func(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
			return nil, pkgerrors.New(pkgerrors.CodePartner, "单号不存在")
		},
	}
	engine := newTestEngine(t, gw, store)

	_, err := engine.Submit(context.Background(), store.record.ID, "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePartner))
	require.Equal(t, "单号不存在", pkgerrors.As(err).Message())
	require.Equal(t, 1, gw.calls)
	// The record stays at resulted so a later retry remains possible.
	require.Nil(t, store.updated)
	require.Equal(t, enums.RecordStatusResulted, store.record.Status)
}
