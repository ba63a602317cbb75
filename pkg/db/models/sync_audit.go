package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/pkg/enums"
)

// SyncAudit is the append-only trail of reconciliation passes. Rows are never
// mutated or deleted by the application outside of retention cleanup.
type SyncAudit struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Trigger    enums.SyncTrigger `gorm:"column:trigger;type:sync_trigger_enum;not null"`
	Outcome    enums.SyncOutcome `gorm:"column:outcome;type:sync_outcome_enum;not null"`
	Fetched    int               `gorm:"column:fetched;not null;default:0"`
	Created    int               `gorm:"column:created;not null;default:0"`
	Updated    int               `gorm:"column:updated;not null;default:0"`
	ErrorText  *string           `gorm:"column:error_text"`
	Operator   *string           `gorm:"column:operator"`
	StartedAt  time.Time         `gorm:"column:started_at;not null;index"`
	FinishedAt time.Time         `gorm:"column:finished_at;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
