package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sunyuchen88/guomaojiance/api/middleware"
	"github.com/sunyuchen88/guomaojiance/api/responses"
	"github.com/sunyuchen88/guomaojiance/api/validators"
	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
	pkgpagination "github.com/sunyuchen88/guomaojiance/pkg/pagination"
)

func recordIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "recordId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id")
	}
	return id, nil
}

// RecordList returns a filtered, cursor-paginated page of records.
func RecordList(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		params := records.ListParams{
			Company:     validators.SanitizeString(r.URL.Query().Get("company"), 255),
			UnionNumber: validators.SanitizeString(r.URL.Query().Get("union_number"), 64),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRecordStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = status
		}

		from, err := validators.ParseQueryTime(r, "checked_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "checked_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.CheckedFrom = from
		params.CheckedTo = to

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pkgpagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListRecords(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RecordDetail returns one record with its items.
func RecordDetail(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		id, err := recordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, recordResponseFromModel(record))
	}
}

type recordResultRequest struct {
	OverallResult string                    `json:"overall_result" validate:"required"`
	Items         []recordResultItemPayload `json:"items" validate:"dive"`
}

type recordResultItemPayload struct {
	ItemID        string `json:"item_id" validate:"required"`
	MeasuredValue string `json:"measured_value"`
	Judgment      string `json:"judgment" validate:"required"`
}

// RecordResultEntry records the operator's inspection outcome, moving the
// record from pending to resulted.
func RecordResultEntry(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		id, err := recordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordResultRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := records.RecordResultInput{
			OverallResult: payload.OverallResult,
			Operator:      middleware.UsernameFromContext(r.Context()),
		}
		for _, item := range payload.Items {
			itemID, err := uuid.Parse(strings.TrimSpace(item.ItemID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			input.Items = append(input.Items, records.ItemResultInput{
				ItemID:        itemID,
				MeasuredValue: item.MeasuredValue,
				Judgment:      item.Judgment,
			})
		}

		record, err := svc.RecordResult(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, recordResponseFromModel(record))
	}
}

// RecordStatusCounts reports how many records sit in each lifecycle state.
func RecordStatusCounts(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		counts, err := svc.StatusCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, counts)
	}
}

type recordResponse struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  int64     `json:"external_id"`
	UnionNumber string    `json:"union_number"`
	DayNumber   *string   `json:"day_number"`

	GoodsName     *string `json:"goods_name"`
	GoodsArea     *string `json:"goods_area"`
	GoodsLocation *string `json:"goods_location"`
	GoodsUnit     *string `json:"goods_unit"`
	CarNumber     *string `json:"car_number"`

	SubmissionMethod  *string `json:"submission_method"`
	SubmissionPerson  *string `json:"submission_person"`
	SubmissionMobile  *string `json:"submission_mobile"`
	SubmissionCompany *string `json:"submission_company"`

	Driver       *string `json:"driver"`
	DriverMobile *string `json:"driver_mobile"`

	CheckType      *string            `json:"check_type"`
	Status         enums.RecordStatus `json:"status"`
	CheckStartTime *time.Time         `json:"check_start_time"`
	CheckEndTime   *time.Time         `json:"check_end_time"`

	OverallResult   *string `json:"overall_result"`
	ReportReference *string `json:"report_reference"`

	CreatedBy *string   `json:"created_by"`
	SyncedAt  time.Time `json:"synced_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []recordItemResponse `json:"items"`
}

type recordItemResponse struct {
	ID             uuid.UUID        `json:"id"`
	ExternalItemID int64            `json:"external_item_id"`
	ItemID         int64            `json:"item_id"`
	Name           string           `json:"name"`
	Method         *string          `json:"method"`
	Unit           *string          `json:"unit"`
	DetectionLimit *decimal.Decimal `json:"detection_limit"`
	MeasuredValue  *string          `json:"measured_value"`
	Judgment       *string          `json:"judgment"`
	ReferenceValue *string          `json:"reference_value"`
	Indicator      *string          `json:"indicator"`
}

func recordResponseFromModel(m *models.InspectionRecord) recordResponse {
	items := make([]recordItemResponse, len(m.Items))
	for i, item := range m.Items {
		items[i] = recordItemResponse{
			ID:             item.ID,
			ExternalItemID: item.ExternalItemID,
			ItemID:         item.ItemID,
			Name:           item.Name,
			Method:         item.Method,
			Unit:           item.Unit,
			DetectionLimit: item.DetectionLimit,
			MeasuredValue:  item.MeasuredValue,
			Judgment:       item.Judgment,
			ReferenceValue: item.ReferenceValue,
			Indicator:      item.Indicator,
		}
	}

	return recordResponse{
		ID:                m.ID,
		ExternalID:        m.ExternalID,
		UnionNumber:       m.UnionNumber,
		DayNumber:         m.DayNumber,
		GoodsName:         m.GoodsName,
		GoodsArea:         m.GoodsArea,
		GoodsLocation:     m.GoodsLocation,
		GoodsUnit:         m.GoodsUnit,
		CarNumber:         m.CarNumber,
		SubmissionMethod:  m.SubmissionMethod,
		SubmissionPerson:  m.SubmissionPerson,
		SubmissionMobile:  m.SubmissionMobile,
		SubmissionCompany: m.SubmissionCompany,
		Driver:            m.Driver,
		DriverMobile:      m.DriverMobile,
		CheckType:         m.CheckType,
		Status:            m.Status,
		CheckStartTime:    m.CheckStartTime,
		CheckEndTime:      m.CheckEndTime,
		OverallResult:     m.OverallResult,
		ReportReference:   m.ReportReference,
		CreatedBy:         m.CreatedBy,
		SyncedAt:          m.SyncedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Items:             items,
	}
}
