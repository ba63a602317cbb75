package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubAuditRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestAuditRetentionJobUsesConfiguredWindow(t *testing.T) {
	repo := &stubAuditRepo{deleted: 12}
	job, err := NewAuditRetentionJob(AuditRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  30,
	})
	require.NoError(t, err)

	typed := job.(*auditRetentionJob)
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	typed.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, now.Add(-30*24*time.Hour), repo.cutoff)
}

func TestAuditRetentionJobDefaultsRetention(t *testing.T) {
	job, err := NewAuditRetentionJob(AuditRetentionJobParams{
		Logger:     testLogger(),
		Repository: &stubAuditRepo{},
	})
	require.NoError(t, err)
	require.Equal(t, defaultAuditRetentionDays, job.(*auditRetentionJob).retention)
}
