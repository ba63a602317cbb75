package syncengine

import (
	"context"
	"sync"
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
	mu    sync.Mutex
	calls int
	fetch func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error)
}

func (s *stubGateway) FetchPending(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fetch(ctx, windowStart, windowEnd, limit)
}

func (s *stubGateway) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type memoryRecordStore struct {
	mu      sync.Mutex
	records map[int64]*models.InspectionRecord
}

func newMemoryRecordStore() *memoryRecordStore {
	return &memoryRecordStore{records: make(map[int64]*models.InspectionRecord)}
}

func (m *memoryRecordStore) FindByExternalID(tx *gorm.DB, externalID int64) (*models.InspectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[externalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memoryRecordStore) Create(tx *gorm.DB, record *models.InspectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	clone := *record
	m.records[record.ExternalID] = &clone
	return nil
}

func (m *memoryRecordStore) Update(tx *gorm.DB, record *models.InspectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[record.ExternalID] = &clone
	return nil
}

func (m *memoryRecordStore) ReplaceItems(tx *gorm.DB, recordID uuid.UUID, items []models.InspectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ID == recordID {
			record.Items = items
		}
	}
	return nil
}

type stubAuditStore struct {
	mu      sync.Mutex
	entries []models.SyncAudit
}

func (s *stubAuditStore) Create(ctx context.Context, entry *models.SyncAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditStore) all() []models.SyncAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SyncAudit(nil), s.entries...)
}

func newTestEngine(t *testing.T, gw *stubGateway, store *memoryRecordStore, audits *stubAuditStore) *Engine {
	t.Helper()
	engine, err := NewEngine(gw, stubTxRunner{}, store, audits, config.SyncConfig{
		WindowStart: "2025-01-01 00:00:00",
		FetchLimit:  100,
	}, nil, nil)
	require.NoError(t, err)
	return engine
}

func singleRecordGateway() *stubGateway {
	status := 0
	return &stubGateway{
		fetch: func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
			return &partner.PendingList{
				List: []partner.CheckObject{{
					CheckObjectID: 1,
					CheckNo:       "U1",
					Status:        &status,
				}},
				Total: 1,
			}, nil
		},
	}
}

func TestReconcileCreatesThenUpdates(t *testing.T) {
	gw := singleRecordGateway()
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)

	first, err := engine.Reconcile(context.Background(), enums.SyncTriggerManual, "op")
	require.NoError(t, err)
	require.Equal(t, enums.SyncOutcomeSuccess, first.Outcome)
	require.Equal(t, 1, first.Fetched)
	require.Equal(t, 1, first.Created)
	require.Equal(t, 0, first.Updated)

	// An identical second pass still counts the row as updated: the
	// engine does not diff before writing.
	second, err := engine.Reconcile(context.Background(), enums.SyncTriggerManual, "op")
	require.NoError(t, err)
	require.Equal(t, 1, second.Fetched)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 1, second.Updated)

	entries := audits.all()
	require.Len(t, entries, 2)
	require.Equal(t, enums.SyncTriggerManual, entries[0].Trigger)
	require.Equal(t, enums.SyncOutcomeSuccess, entries[0].Outcome)
	require.Equal(t, 1, entries[0].Created)
	require.Equal(t, "op", *entries[0].Operator)
	require.Equal(t, 1, entries[1].Updated)
}

func TestReconcileLeavesSubmittedRecordsUntouched(t *testing.T) {
	gw := singleRecordGateway()
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)

	overall := "合格"
	require.NoError(t, store.Create(nil, &models.InspectionRecord{
		ID:            uuid.New(),
		ExternalID:    1,
		UnionNumber:   "U1",
		Status:        enums.RecordStatusSubmitted,
		OverallResult: &overall,
	}))

	result, err := engine.Reconcile(context.Background(), enums.SyncTriggerAutomatic, "")
	require.NoError(t, err)
	require.Equal(t, enums.SyncOutcomeSuccess, result.Outcome)
	require.Equal(t, 1, result.Fetched)
	require.Equal(t, 0, result.Created)
	require.Equal(t, 0, result.Updated)

	frozen, err := store.FindByExternalID(nil, 1)
	require.NoError(t, err)
	require.Equal(t, enums.RecordStatusSubmitted, frozen.Status)
	require.Equal(t, "合格", *frozen.OverallResult)
}

func TestReconcileGatewayFailureStillWritesAudit(t *testing.T) {
	gw := &stubGateway{
		fetch: func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
			return nil, pkgerrors.New(pkgerrors.CodePartner, "签名错误")
		},
	}
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)

	result, err := engine.Reconcile(context.Background(), enums.SyncTriggerManual, "op")
	require.NoError(t, err)
	require.Equal(t, enums.SyncOutcomeError, result.Outcome)
	require.Equal(t, "签名错误", result.Message)

	entries := audits.all()
	require.Len(t, entries, 1)
	require.Equal(t, enums.SyncOutcomeError, entries[0].Outcome)
	require.Equal(t, "签名错误", *entries[0].ErrorText)
	require.Equal(t, 0, entries[0].Fetched)
}

func TestReconcileRejectsConcurrentPass(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &stubGateway{
		fetch: func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
			close(started)
			<-release
			return &partner.PendingList{}, nil
		},
	}
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := engine.Reconcile(context.Background(), enums.SyncTriggerAutomatic, "")
		require.NoError(t, err)
	}()

	<-started
	require.True(t, engine.InFlight())

	_, err := engine.Reconcile(context.Background(), enums.SyncTriggerManual, "op")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSyncInFlight))

	close(release)
	<-done

	// The rejected call is not a pass: only the winner leaves a trail.
	require.Len(t, audits.all(), 1)
	require.Equal(t, 1, gw.callCount())
}

func TestReconcileSkipsPayloadWithoutExternalID(t *testing.T) {
	gw := &stubGateway{
		fetch: func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
			return &partner.PendingList{
				List:  []partner.CheckObject{{CheckNo: "no-id"}},
				Total: 1,
			}, nil
		},
	}
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)

	result, err := engine.Reconcile(context.Background(), enums.SyncTriggerManual, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Fetched)
	require.Equal(t, 0, result.Created)
	require.Equal(t, 0, result.Updated)
}

func TestReconcileWindowUsesConfiguredStartAndCurrentDayEnd(t *testing.T) {
	var gotStart, gotEnd string
	gw := &stubGateway{
		fetch: func(ctx context.Context, windowStart, windowEnd string, limit int) (*partner.PendingList, error) {
			gotStart, gotEnd = windowStart, windowEnd
			return &partner.PendingList{}, nil
		},
	}
	store := newMemoryRecordStore()
	audits := &stubAuditStore{}
	engine := newTestEngine(t, gw, store, audits)
	engine.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local)
	}

	_, err := engine.Reconcile(context.Background(), enums.SyncTriggerAutomatic, "")
	require.NoError(t, err)
	require.Equal(t, "2025-01-01 00:00:00", gotStart)
	require.Equal(t, "2025-06-15 23:59:59", gotEnd)
}
