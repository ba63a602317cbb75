package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgpagination "github.com/sunyuchen88/guomaojiance/pkg/pagination"
)

type ListParams struct {
	Status      enums.RecordStatus
	Company     string
	UnionNumber string
	CheckedFrom *time.Time
	CheckedTo   *time.Time
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

type ListItem struct {
	ID              uuid.UUID          `json:"id"`
	ExternalID      int64              `json:"external_id"`
	UnionNumber     string             `json:"union_number"`
	GoodsName       *string            `json:"goods_name"`
	Company         *string            `json:"company"`
	Status          enums.RecordStatus `json:"status"`
	CheckStartTime  *time.Time         `json:"check_start_time"`
	CheckEndTime    *time.Time         `json:"check_end_time"`
	OverallResult   *string            `json:"overall_result"`
	ReportReference *string            `json:"report_reference"`
	ItemCount       int                `json:"item_count"`
	SyncedAt        time.Time          `json:"synced_at"`
	CreatedAt       time.Time          `json:"created_at"`
}

type listQuery struct {
	status      enums.RecordStatus
	company     string
	unionNumber string
	checkedFrom *time.Time
	checkedTo   *time.Time
	limit       int
	cursor      *pkgpagination.Cursor
}

func toListItem(m models.InspectionRecord) ListItem {
	return ListItem{
		ID:              m.ID,
		ExternalID:      m.ExternalID,
		UnionNumber:     m.UnionNumber,
		GoodsName:       m.GoodsName,
		Company:         m.SubmissionCompany,
		Status:          m.Status,
		CheckStartTime:  m.CheckStartTime,
		CheckEndTime:    m.CheckEndTime,
		OverallResult:   m.OverallResult,
		ReportReference: m.ReportReference,
		ItemCount:       len(m.Items),
		SyncedAt:        m.SyncedAt,
		CreatedAt:       m.CreatedAt,
	}
}
