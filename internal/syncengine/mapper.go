package syncengine

import (
	"time"

	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
)

// timeLayouts lists the datetime shapes the partner has been observed to
// emit, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// mapRecord translates one partner check object into the local model.
// Returns false when the payload has no usable external id.
func mapRecord(obj partner.CheckObject, syncedAt time.Time) (*models.InspectionRecord, bool) {
	externalID := obj.CheckObjectID
	if externalID == 0 {
		externalID = obj.ID
	}
	if externalID == 0 {
		return nil, false
	}

	statusCode := 0
	if obj.Status != nil {
		statusCode = *obj.Status
	}

	record := &models.InspectionRecord{
		ExternalID:  externalID,
		UnionNumber: firstOf(obj.CheckNo, obj.UnionNum),
		DayNumber:   optional(obj.DayNum),

		GoodsName:     optional(firstOf(obj.SubmissionGoodsName, obj.SampleName)),
		GoodsArea:     optional(obj.SubmissionGoodsArea),
		GoodsLocation: optional(obj.SubmissionGoodsLocation),
		GoodsUnit:     optional(obj.SubmissionGoodsUnit),
		CarNumber:     optional(obj.SubmissionGoodsCarNumber),

		SubmissionMethod:  optional(obj.SubmissionMethod),
		SubmissionPerson:  optional(obj.SubmissionPerson),
		SubmissionMobile:  optional(obj.SubmissionPersonMobile),
		SubmissionCompany: optional(firstOf(obj.SubmissionPersonCompany, obj.CompanyName)),

		Driver:       optional(obj.Driver),
		DriverMobile: optional(obj.DriverMobile),

		CheckType:      optional(obj.CheckType),
		Status:         enums.RecordStatusFromPartner(statusCode),
		CheckStartTime: parseTime(firstOf(obj.CheckStartTime, obj.SamplingTime)),
		CheckEndTime:   parseTime(obj.CheckEndTime),

		OverallResult:   optional(obj.CheckResult),
		ReportReference: optional(firstOf(obj.CheckResultURL, obj.ReportURL)),

		CreatedBy: optional(obj.CreateAdmin),
		SyncedAt:  syncedAt,
	}

	record.Items = mapItems(obj)
	return record, true
}

func mapItems(obj partner.CheckObject) []models.InspectionItem {
	source := obj.ObjectItems
	if len(source) == 0 {
		source = obj.CheckItems
	}
	if len(source) == 0 {
		source = obj.Items
	}

	items := make([]models.InspectionItem, 0, len(source))
	for _, raw := range source {
		detail := raw.CheckItemDetail
		if raw.CheckItem != nil {
			detail = *raw.CheckItem
		}

		externalItemID := raw.CheckObjectItemID
		if externalItemID == 0 {
			externalItemID = raw.ID
		}

		itemID := detail.ItemID
		if itemID == 0 {
			itemID = detail.CheckItemID
		}

		items = append(items, models.InspectionItem{
			ExternalItemID: externalItemID,
			ItemID:         itemID,
			Name:           firstOf(detail.Name, detail.ItemName),
			Method:         optional(detail.MethodName),
			// The partner repurposes reference_values as the display unit.
			Unit:           optional(detail.ReferenceValues),
			DetectionLimit: detail.Fee,
			ReferenceValue: optional(firstOf(detail.ReferenceValue, detail.ReferenceValues)),
			Indicator:      optional(detail.ItemIndicator),
		})
	}
	return items
}

// mergeRecord copies partner-sourced values onto an existing row, leaving
// any column the partner sent empty untouched so local edits survive.
func mergeRecord(existing, incoming *models.InspectionRecord, syncedAt time.Time) {
	existing.UnionNumber = firstOf(incoming.UnionNumber, existing.UnionNumber)
	mergeOptional(&existing.DayNumber, incoming.DayNumber)

	mergeOptional(&existing.GoodsName, incoming.GoodsName)
	mergeOptional(&existing.GoodsArea, incoming.GoodsArea)
	mergeOptional(&existing.GoodsLocation, incoming.GoodsLocation)
	mergeOptional(&existing.GoodsUnit, incoming.GoodsUnit)
	mergeOptional(&existing.CarNumber, incoming.CarNumber)

	mergeOptional(&existing.SubmissionMethod, incoming.SubmissionMethod)
	mergeOptional(&existing.SubmissionPerson, incoming.SubmissionPerson)
	mergeOptional(&existing.SubmissionMobile, incoming.SubmissionMobile)
	mergeOptional(&existing.SubmissionCompany, incoming.SubmissionCompany)

	mergeOptional(&existing.Driver, incoming.Driver)
	mergeOptional(&existing.DriverMobile, incoming.DriverMobile)

	mergeOptional(&existing.CheckType, incoming.CheckType)
	if incoming.CheckStartTime != nil {
		existing.CheckStartTime = incoming.CheckStartTime
	}
	if incoming.CheckEndTime != nil {
		existing.CheckEndTime = incoming.CheckEndTime
	}

	mergeOptional(&existing.OverallResult, incoming.OverallResult)
	mergeOptional(&existing.ReportReference, incoming.ReportReference)
	mergeOptional(&existing.CreatedBy, incoming.CreatedBy)

	// A locally resulted record never drops back to pending because the
	// partner still reports it as unfinished.
	if existing.Status != enums.RecordStatusResulted || incoming.Status != enums.RecordStatusPending {
		existing.Status = incoming.Status
	}
	existing.SyncedAt = syncedAt
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func mergeOptional(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}
