package syncengine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	"github.com/sunyuchen88/guomaojiance/pkg/partner"
)

func intPtr(v int) *int { return &v }

func TestMapRecordPrimaryFields(t *testing.T) {
	now := time.Now()
	fee := decimal.NewFromFloat(12.5)

	record, ok := mapRecord(partner.CheckObject{
		CheckObjectID:           101,
		CheckNo:                 "CN-101",
		SubmissionGoodsName:     "白菜",
		SubmissionPersonCompany: "某公司",
		Status:                  intPtr(1),
		CheckStartTime:          "2025-06-01 08:30:00",
		CheckResultURL:          "https://partner/report/101",
		ObjectItems: []partner.ObjectItem{{
			CheckObjectItemID: 9,
			CheckItem: &partner.CheckItemDetail{
				ItemID:          3,
				Name:            "铅",
				MethodName:      "GB 5009.12",
				ReferenceValues: "mg/kg",
				Fee:             &fee,
				ItemIndicator:   "<=0.1",
			},
		}},
	}, now)
	require.True(t, ok)

	require.Equal(t, int64(101), record.ExternalID)
	require.Equal(t, "CN-101", record.UnionNumber)
	require.Equal(t, "白菜", *record.GoodsName)
	require.Equal(t, "某公司", *record.SubmissionCompany)
	require.Equal(t, enums.RecordStatusResulted, record.Status)
	require.Equal(t, "https://partner/report/101", *record.ReportReference)
	require.Equal(t, now, record.SyncedAt)

	require.NotNil(t, record.CheckStartTime)
	require.Equal(t, 8, record.CheckStartTime.Hour())

	require.Len(t, record.Items, 1)
	item := record.Items[0]
	require.Equal(t, int64(9), item.ExternalItemID)
	require.Equal(t, int64(3), item.ItemID)
	require.Equal(t, "铅", item.Name)
	require.Equal(t, "GB 5009.12", *item.Method)
	require.Equal(t, "mg/kg", *item.Unit)
	require.True(t, item.DetectionLimit.Equal(fee))
	require.Equal(t, "<=0.1", *item.Indicator)
}

func TestMapRecordFallbackAliases(t *testing.T) {
	record, ok := mapRecord(partner.CheckObject{
		ID:           55,
		UnionNum:     "CN-55",
		SampleName:   "萝卜",
		CompanyName:  "别名公司",
		SamplingTime: "2025/06/02 09:00:00",
		ReportURL:    "https://partner/report/55",
		CheckItems: []partner.ObjectItem{{
			ID: 7,
			CheckItemDetail: partner.CheckItemDetail{
				CheckItemID: 4,
				ItemName:    "镉",
			},
		}},
	}, time.Now())
	require.True(t, ok)

	require.Equal(t, int64(55), record.ExternalID)
	require.Equal(t, "CN-55", record.UnionNumber)
	require.Equal(t, "萝卜", *record.GoodsName)
	require.Equal(t, "别名公司", *record.SubmissionCompany)
	require.Equal(t, enums.RecordStatusPending, record.Status)
	require.NotNil(t, record.CheckStartTime)
	require.Equal(t, "https://partner/report/55", *record.ReportReference)

	require.Len(t, record.Items, 1)
	require.Equal(t, int64(7), record.Items[0].ExternalItemID)
	require.Equal(t, int64(4), record.Items[0].ItemID)
	require.Equal(t, "镉", record.Items[0].Name)
}

func TestMapRecordRejectsMissingExternalID(t *testing.T) {
	_, ok := mapRecord(partner.CheckObject{CheckNo: "CN-X"}, time.Now())
	require.False(t, ok)
}

func TestParseTimeFormats(t *testing.T) {
	for _, value := range []string{
		"2025-06-01 10:00:00",
		"2025-06-01",
		"2025/06/01 10:00:00",
		"2025-06-01T10:00:00",
	} {
		require.NotNil(t, parseTime(value), value)
	}
	require.Nil(t, parseTime("not a date"))
	require.Nil(t, parseTime(""))
}

func TestMergeRecordKeepsLocalValuesWhenPartnerEmpty(t *testing.T) {
	now := time.Now()
	base, ok := mapRecord(partner.CheckObject{
		CheckObjectID:       1,
		CheckNo:             "CN-1",
		SubmissionGoodsName: "白菜",
	}, now)
	require.True(t, ok)
	base.Status = enums.RecordStatusResulted
	overall := "合格"
	base.OverallResult = &overall

	incoming, ok := mapRecord(partner.CheckObject{
		CheckObjectID: 1,
		CheckNo:       "CN-1",
	}, now)
	require.True(t, ok)

	mergeRecord(base, incoming, now)

	require.Equal(t, "白菜", *base.GoodsName)
	require.Equal(t, "合格", *base.OverallResult)
	require.Equal(t, enums.RecordStatusResulted, base.Status)
}

func TestMergeRecordAdoptsPartnerAdvancedStatus(t *testing.T) {
	now := time.Now()
	base, _ := mapRecord(partner.CheckObject{CheckObjectID: 2}, now)

	incoming, _ := mapRecord(partner.CheckObject{CheckObjectID: 2, Status: intPtr(1)}, now)
	mergeRecord(base, incoming, now)
	require.Equal(t, enums.RecordStatusResulted, base.Status)
}
