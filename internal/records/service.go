package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	pkgpagination "github.com/sunyuchen88/guomaojiance/pkg/pagination"
)

type recordsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error)
	List(ctx context.Context, opts listQuery) ([]models.InspectionRecord, error)
	UpdateResult(ctx context.Context, record *models.InspectionRecord) error
	Save(ctx context.Context, record *models.InspectionRecord) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Service exposes record lookup, listing, and operator result entry.
type Service interface {
	GetRecord(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error)
	ListRecords(ctx context.Context, params ListParams) (*ListResult, error)
	RecordResult(ctx context.Context, id uuid.UUID, input RecordResultInput) (*models.InspectionRecord, error)
	AttachReport(ctx context.Context, id uuid.UUID, reference string) (*models.InspectionRecord, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

type service struct {
	repo recordsRepository
}

// RecordResultInput captures an operator's inspection outcome entry.
type RecordResultInput struct {
	OverallResult string
	Items         []ItemResultInput
	Operator      string
}

// ItemResultInput records the measured value and judgment for one item.
type ItemResultInput struct {
	ItemID        uuid.UUID
	MeasuredValue string
	Judgment      string
}

// NewService builds a record service backed by the provided repository.
func NewService(repo recordsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("records repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup record")
	}
	return record, nil
}

func (s *service) ListRecords(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if params.CheckedFrom != nil && params.CheckedTo != nil && params.CheckedTo.Before(*params.CheckedFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end precedes start")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		status:      params.Status,
		company:     strings.TrimSpace(params.Company),
		unionNumber: strings.TrimSpace(params.UnionNumber),
		checkedFrom: params.CheckedFrom,
		checkedTo:   params.CheckedTo,
		limit:       pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list records")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

// RecordResult moves a record from pending to resulted. Every item must end
// up with a judgment and the overall result must be present before the
// transition is committed. Submitted records are immutable.
func (s *service) RecordResult(ctx context.Context, id uuid.UUID, input RecordResultInput) (*models.InspectionRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if strings.TrimSpace(input.OverallResult) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "overall_result is required")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup record")
	}

	if record.Status == enums.RecordStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record already submitted")
	}

	byID := make(map[uuid.UUID]*models.InspectionItem, len(record.Items))
	for i := range record.Items {
		byID[record.Items[i].ID] = &record.Items[i]
	}
	for _, entry := range input.Items {
		item, ok := byID[entry.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %s does not belong to record", entry.ItemID))
		}
		if strings.TrimSpace(entry.Judgment) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %s is missing a judgment", entry.ItemID))
		}
		judgment := strings.TrimSpace(entry.Judgment)
		item.Judgment = &judgment
		if measured := strings.TrimSpace(entry.MeasuredValue); measured != "" {
			item.MeasuredValue = &measured
		}
	}

	for i := range record.Items {
		if record.Items[i].Judgment == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %s has no judgment yet", record.Items[i].ID))
		}
	}

	overall := strings.TrimSpace(input.OverallResult)
	record.OverallResult = &overall
	record.Status = enums.RecordStatusResulted
	if operator := strings.TrimSpace(input.Operator); operator != "" {
		record.CreatedBy = &operator
	}

	if err := s.repo.UpdateResult(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist record result")
	}
	return record, nil
}

// AttachReport links an uploaded report artifact to the record. The link is
// returned to the partner as check_result_url on submission.
func (s *service) AttachReport(ctx context.Context, id uuid.UUID, reference string) (*models.InspectionRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report reference is required")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup record")
	}

	if record.Status == enums.RecordStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record already submitted")
	}

	record.ReportReference = &reference
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist report reference")
	}
	return record, nil
}

func (s *service) StatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count records")
	}
	return counts, nil
}
