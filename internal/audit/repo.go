package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgpagination "github.com/sunyuchen88/guomaojiance/pkg/pagination"
)

// Repository persists the append-only reconciliation trail. Rows are only
// ever inserted; the sole delete path is retention cleanup.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create appends one audit row.
func (r *Repository) Create(ctx context.Context, entry *models.SyncAudit) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListParams filters the audit listing.
type ListParams struct {
	Trigger enums.SyncTrigger
	Outcome enums.SyncOutcome
	pkgpagination.Params
}

// List returns audit rows newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.SyncAudit, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncAudit{})

	if params.Trigger != "" {
		query = query.Where("trigger = ?", params.Trigger)
	}
	if params.Outcome != "" {
		query = query.Where("outcome = ?", params.Outcome)
	}

	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(pkgpagination.LimitWithBuffer(params.Limit))

	var rows []models.SyncAudit
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOlderThan removes audit rows that started before the cutoff and
// returns how many were dropped.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.SyncAudit{})
	return result.RowsAffected, result.Error
}
