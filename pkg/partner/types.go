package partner

import (
	"github.com/shopspring/decimal"
)

// envelope is the outer shape of every partner response.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const statusOK = 200

// CheckObject is one inspection record as the partner serves it. The
// partner emits several aliases for the same logical field depending on
// the upstream source, so alternates are kept side by side and resolved
// downstream.
type CheckObject struct {
	CheckObjectID int64 `json:"check_object_id"`
	ID            int64 `json:"id"`

	CheckNo  string `json:"check_no"`
	UnionNum string `json:"check_object_union_num"`
	DayNum   string `json:"day_num"`

	SubmissionGoodsID        string `json:"submission_goods_id"`
	SubmissionGoodsName      string `json:"submission_goods_name"`
	SampleName               string `json:"sample_name"`
	SubmissionGoodsArea      string `json:"submission_goods_area"`
	SubmissionGoodsLocation  string `json:"submission_goods_location"`
	SubmissionGoodsUnit      string `json:"submission_goods_unit"`
	SubmissionGoodsCarNumber string `json:"submission_goods_car_number"`

	SubmissionMethod        string `json:"submission_method"`
	SubmissionPerson        string `json:"submission_person"`
	SubmissionPersonMobile  string `json:"submission_person_mobile"`
	SubmissionPersonCompany string `json:"submission_person_company"`
	CompanyName             string `json:"company_name"`

	Driver       string `json:"driver"`
	DriverMobile string `json:"driver_mobile"`

	CheckType      string `json:"check_type"`
	Status         *int   `json:"status"`
	IsReceive      *int   `json:"is_receive"`
	CheckStartTime string `json:"check_start_time"`
	SamplingTime   string `json:"sampling_time"`
	CheckEndTime   string `json:"check_end_time"`
	CheckResult    string `json:"check_result"`
	CheckResultURL string `json:"check_result_url"`
	ReportURL      string `json:"report_url"`

	CreateAdmin string `json:"create_admin"`

	ObjectItems []ObjectItem `json:"objectItems"`
	CheckItems  []ObjectItem `json:"check_items"`
	Items       []ObjectItem `json:"item"`
}

// ObjectItem is one test item attached to a check object. Newer
// payloads nest the item detail under checkItem; older ones flatten
// the same fields onto the item itself.
type ObjectItem struct {
	CheckObjectItemID int64 `json:"check_object_item_id"`
	ID                int64 `json:"id"`

	CheckItem *CheckItemDetail `json:"checkItem"`

	CheckItemDetail
}

// CheckItemDetail carries the test item definition fields.
type CheckItemDetail struct {
	ItemID      int64  `json:"item_id"`
	CheckItemID int64  `json:"check_item_id"`
	Name        string `json:"name"`
	ItemName    string `json:"item_name"`

	MethodName      string           `json:"method_name"`
	ReferenceValues string           `json:"reference_values"`
	ReferenceValue  string           `json:"reference_value"`
	Fee             *decimal.Decimal `json:"fee"`
	ItemIndicator   string           `json:"item_indicator"`
}

// PendingList is the normalized fetch result: data may arrive as
// {"list": [...], "count": n} or as a bare array, and both collapse
// into this shape.
type PendingList struct {
	List  []CheckObject
	Total int
}

// SubmitBatch is the feedback payload delivering inspection results.
type SubmitBatch struct {
	CheckNoJoin string       `json:"check_no_join"`
	CheckNum    int          `json:"check_num"`
	Goods       []SubmitGood `json:"goods"`
}

type SubmitGood struct {
	CheckNo        string       `json:"check_no"`
	CheckTime      string       `json:"check_time"`
	CheckResultURL string       `json:"check_result_url"`
	CheckResult    string       `json:"check_result"`
	Items          []SubmitItem `json:"item"`
}

type SubmitItem struct {
	ItemID        int64  `json:"item_id"`
	ItemName      string `json:"item_name"`
	ItemRes       string `json:"item_res"`
	ItemIndicator string `json:"item_indicator"`
}

// Ack is the partner's acknowledgement of a successful feedback
// submission; rejections surface as errors instead.
type Ack struct {
	Message string
}
