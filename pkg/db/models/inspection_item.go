package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InspectionItem is one analyte measured on a record. Items are replaced
// wholesale on every reconciliation update to their parent rather than
// diffed field by field.
type InspectionItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecordID       uuid.UUID `gorm:"column:record_id;type:uuid;not null;index"`
	ExternalItemID int64     `gorm:"column:external_item_id;not null"`
	ItemID         int64     `gorm:"column:item_id;not null"`
	Name           string    `gorm:"column:name;not null"`

	Method         *string          `gorm:"column:method"`
	Unit           *string          `gorm:"column:unit"`
	DetectionLimit *decimal.Decimal `gorm:"column:detection_limit;type:numeric(10,2)"`

	MeasuredValue  *string `gorm:"column:measured_value"`
	Judgment       *string `gorm:"column:judgment"`
	ReferenceValue *string `gorm:"column:reference_value"`
	Indicator      *string `gorm:"column:indicator"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
