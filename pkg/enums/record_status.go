package enums

import "fmt"

// RecordStatus maps to the record_status enum in Postgres.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusResulted  RecordStatus = "resulted"
	RecordStatusSubmitted RecordStatus = "submitted"
	// RecordStatusSubmitFailed exists in historical rows imported from the
	// legacy schema. No transition assigns it; failed submissions leave a
	// record at resulted so it stays retryable.
	RecordStatusSubmitFailed RecordStatus = "submit_failed"
)

var validRecordStatuses = []RecordStatus{
	RecordStatusPending,
	RecordStatusResulted,
	RecordStatusSubmitted,
	RecordStatusSubmitFailed,
}

// IsValid reports whether the value matches the canonical record_status enum.
func (s RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusSubmitted
}

// ParseRecordStatus converts raw input into RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	for _, candidate := range validRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q", value)
}

// RecordStatusFromPartner translates the partner's numeric status codes.
func RecordStatusFromPartner(code int) RecordStatus {
	switch code {
	case 1:
		return RecordStatusResulted
	case 2:
		return RecordStatusSubmitted
	case 3:
		return RecordStatusSubmitFailed
	default:
		return RecordStatusPending
	}
}
