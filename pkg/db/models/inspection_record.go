package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/pkg/enums"
)

// InspectionRecord is a sample pulled from the partner system. The partner's
// external id is the reconciliation join key; the union number is the
// human-facing tracking code and never participates in upsert matching.
type InspectionRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID  int64     `gorm:"column:external_id;not null;uniqueIndex"`
	UnionNumber string    `gorm:"column:union_number;not null;index"`
	DayNumber   *string   `gorm:"column:day_number"`

	GoodsName     *string `gorm:"column:goods_name"`
	GoodsArea     *string `gorm:"column:goods_area"`
	GoodsLocation *string `gorm:"column:goods_location"`
	GoodsUnit     *string `gorm:"column:goods_unit"`
	CarNumber     *string `gorm:"column:car_number"`

	SubmissionMethod  *string `gorm:"column:submission_method"`
	SubmissionPerson  *string `gorm:"column:submission_person"`
	SubmissionMobile  *string `gorm:"column:submission_mobile"`
	SubmissionCompany *string `gorm:"column:submission_company;index"`

	Driver       *string `gorm:"column:driver"`
	DriverMobile *string `gorm:"column:driver_mobile"`

	CheckType      *string            `gorm:"column:check_type"`
	Status         enums.RecordStatus `gorm:"column:status;type:record_status_enum;not null;default:pending;index"`
	CheckStartTime *time.Time         `gorm:"column:check_start_time;index"`
	CheckEndTime   *time.Time         `gorm:"column:check_end_time"`

	// OverallResult is set when an operator records the result
	// (pending -> resulted) and is required before submission.
	OverallResult *string `gorm:"column:overall_result"`
	// ReportReference points at the uploaded report artifact returned to the
	// partner as check_result_url.
	ReportReference *string `gorm:"column:report_reference"`

	CreatedBy *string   `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	SyncedAt  time.Time `gorm:"column:synced_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Items []InspectionItem `gorm:"foreignKey:RecordID;references:ID;constraint:OnDelete:CASCADE"`
}
