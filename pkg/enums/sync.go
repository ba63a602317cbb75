package enums

import "fmt"

// SyncTrigger maps to the sync_trigger enum in Postgres.
type SyncTrigger string

const (
	SyncTriggerManual    SyncTrigger = "manual"
	SyncTriggerAutomatic SyncTrigger = "automatic"
)

var validSyncTriggers = []SyncTrigger{
	SyncTriggerManual,
	SyncTriggerAutomatic,
}

// IsValid reports whether the value matches the canonical sync_trigger enum.
func (t SyncTrigger) IsValid() bool {
	for _, candidate := range validSyncTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSyncTrigger converts raw input into SyncTrigger.
func ParseSyncTrigger(value string) (SyncTrigger, error) {
	for _, candidate := range validSyncTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync trigger %q", value)
}

// SyncOutcome maps to the sync_outcome enum in Postgres.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeError   SyncOutcome = "error"
)

var validSyncOutcomes = []SyncOutcome{
	SyncOutcomeSuccess,
	SyncOutcomeError,
}

// IsValid reports whether the value matches the canonical sync_outcome enum.
func (o SyncOutcome) IsValid() bool {
	for _, candidate := range validSyncOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseSyncOutcome converts raw input into SyncOutcome.
func ParseSyncOutcome(value string) (SyncOutcome, error) {
	for _, candidate := range validSyncOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync outcome %q", value)
}
