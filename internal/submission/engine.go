package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
)

const checkTimeLayout = "2006-01-02 15:04:05"

type gateway interface {
	SubmitResults(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionRecord, error)
	Update(tx *gorm.DB, record *models.InspectionRecord) error
}

// Result reports the acknowledged submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Engine delivers finished inspection results back to the partner and
// finalizes the record lifecycle. Transport failures are retried with
// exponential backoff; a partner rejection is terminal for the attempt
// and leaves the record retryable at resulted.
type Engine struct {
	gateway gateway
	db      txRunner
	records recordStore
	cfg     config.SubmitConfig
	logg    *logger.Logger

	now func() time.Time
}

func NewEngine(gw gateway, db txRunner, records recordStore, cfg config.SubmitConfig, logg *logger.Logger) (*Engine, error) {
	if gw == nil {
		return nil, fmt.Errorf("partner gateway required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	return &Engine{
		gateway: gw,
		db:      db,
		records: records,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Submit pushes one record's results to the partner. All preconditions are
// checked before any network traffic; the submitted transition commits in
// the same transaction that reacts to the acknowledgement.
func (e *Engine) Submit(ctx context.Context, recordID uuid.UUID, operator string) (*Result, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if e.logg != nil {
		ctx = e.logg.WithRecordID(ctx, recordID.String())
	}

	record, err := e.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup record")
	}

	switch record.Status {
	case enums.RecordStatusSubmitted:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record already submitted")
	case enums.RecordStatusResulted:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record not yet resulted")
	}

	if record.OverallResult == nil || *record.OverallResult == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record has no overall result")
	}

	batch := e.buildBatch(record)

	ack, err := e.deliver(ctx, batch)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(ctx, "result submission failed: "+err.Error())
		}
		return nil, err
	}

	err = e.db.WithTx(ctx, func(tx *gorm.DB) error {
		record.Status = enums.RecordStatusSubmitted
		if operator != "" {
			record.CreatedBy = &operator
		}
		return e.records.Update(tx, record)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize submitted record")
	}

	if e.logg != nil {
		e.logg.Info(ctx, "record submitted to partner")
	}

	return &Result{Success: true, Message: ack.Message}, nil
}

// deliver retries transport failures with exponential backoff. Partner
// rejections and malformed responses are never retried.
func (e *Engine) deliver(ctx context.Context, batch partner.SubmitBatch) (*partner.Ack, error) {
	var ack *partner.Ack

	backoff := retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), retry.NewExponential(e.cfg.BaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := e.gateway.SubmitResults(ctx, batch)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeTransport) {
				return retry.RetryableError(err)
			}
			return err
		}
		ack = result
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeTransport) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err,
				fmt.Sprintf("submission failed after %d attempts", e.cfg.MaxAttempts))
		}
		return nil, err
	}
	return ack, nil
}

func (e *Engine) buildBatch(record *models.InspectionRecord) partner.SubmitBatch {
	items := make([]partner.SubmitItem, 0, len(record.Items))
	for _, item := range record.Items {
		entry := partner.SubmitItem{
			ItemID:   item.ItemID,
			ItemName: item.Name,
		}
		if item.Judgment != nil {
			entry.ItemRes = *item.Judgment
		}
		if item.MeasuredValue != nil {
			entry.ItemIndicator = *item.MeasuredValue
		}
		items = append(items, entry)
	}

	good := partner.SubmitGood{
		CheckNo:     record.UnionNumber,
		CheckTime:   e.now().Format(checkTimeLayout),
		CheckResult: *record.OverallResult,
		Items:       items,
	}
	if record.ReportReference != nil {
		good.CheckResultURL = *record.ReportReference
	}

	return partner.SubmitBatch{
		CheckNoJoin: record.UnionNumber,
		CheckNum:    1,
		Goods:       []partner.SubmitGood{good},
	}
}
