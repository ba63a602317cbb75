package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
)

// Repository exposes inspection record persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a record repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// FindByID loads a record with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error) {
	var record models.InspectionRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByExternalID loads the record matching the partner's id, items included.
// The tx argument scopes the lookup to a reconciliation transaction; pass nil
// to use the shared connection.
func (r *Repository) FindByExternalID(tx *gorm.DB, externalID int64) (*models.InspectionRecord, error) {
	var record models.InspectionRecord
	err := r.conn(tx).
		Preload("Items").
		First(&record, "external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a record together with its items.
func (r *Repository) Create(tx *gorm.DB, record *models.InspectionRecord) error {
	return r.conn(tx).Create(record).Error
}

// Update persists changed columns of an existing record, items excluded.
func (r *Repository) Update(tx *gorm.DB, record *models.InspectionRecord) error {
	return r.conn(tx).Omit("Items").Save(record).Error
}

// ReplaceItems swaps the full item set of a record.
func (r *Repository) ReplaceItems(tx *gorm.DB, recordID uuid.UUID, items []models.InspectionItem) error {
	conn := r.conn(tx)
	if err := conn.Where("record_id = ?", recordID).Delete(&models.InspectionItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RecordID = recordID
	}
	return conn.Create(&items).Error
}

// UpdateResult persists the record together with its item results in one
// transaction, so a partial result write never becomes visible.
func (r *Repository) UpdateResult(ctx context.Context, record *models.InspectionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(record).Error; err != nil {
			return err
		}
		for i := range record.Items {
			if err := tx.Save(&record.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Save persists the record row, items untouched.
func (r *Repository) Save(ctx context.Context, record *models.InspectionRecord) error {
	return r.db.WithContext(ctx).Omit("Items").Save(record).Error
}

// List returns filtered records using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.InspectionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.InspectionRecord{}).Preload("Items")

	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.company != "" {
		query = query.Where("submission_company LIKE ?", "%"+opts.company+"%")
	}
	if opts.unionNumber != "" {
		query = query.Where("union_number = ?", opts.unionNumber)
	}
	if opts.checkedFrom != nil {
		query = query.Where("check_start_time >= ?", *opts.checkedFrom)
	}
	if opts.checkedTo != nil {
		query = query.Where("check_start_time <= ?", *opts.checkedTo)
	}

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.InspectionRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportFilter narrows the record set handed to the spreadsheet export.
type ExportFilter struct {
	IDs         []uuid.UUID
	Status      string
	Company     string
	UnionNumber string
	CheckedFrom *time.Time
	CheckedTo   *time.Time
	Limit       int
}

// FindForExport loads records with items for spreadsheet export. Explicit
// ids take precedence over the other filters.
func (r *Repository) FindForExport(ctx context.Context, filter ExportFilter) ([]models.InspectionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.InspectionRecord{}).Preload("Items")

	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	} else {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Company != "" {
			query = query.Where("submission_company LIKE ?", "%"+filter.Company+"%")
		}
		if filter.UnionNumber != "" {
			query = query.Where("union_number = ?", filter.UnionNumber)
		}
		if filter.CheckedFrom != nil {
			query = query.Where("check_start_time >= ?", *filter.CheckedFrom)
		}
		if filter.CheckedTo != nil {
			query = query.Where("check_start_time <= ?", *filter.CheckedTo)
		}
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	query = query.Order("created_at DESC")

	var rows []models.InspectionRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByStatus reports how many records sit at each lifecycle status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.InspectionRecord{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Total
	}
	return counts, nil
}
