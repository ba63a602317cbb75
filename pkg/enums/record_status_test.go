package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecordStatus(t *testing.T) {
	status, err := ParseRecordStatus("resulted")
	require.NoError(t, err)
	require.Equal(t, RecordStatusResulted, status)

	_, err = ParseRecordStatus("finished")
	require.Error(t, err)
}

func TestRecordStatusFromPartner(t *testing.T) {
	require.Equal(t, RecordStatusPending, RecordStatusFromPartner(0))
	require.Equal(t, RecordStatusResulted, RecordStatusFromPartner(1))
	require.Equal(t, RecordStatusSubmitted, RecordStatusFromPartner(2))
	require.Equal(t, RecordStatusSubmitFailed, RecordStatusFromPartner(3))
	require.Equal(t, RecordStatusPending, RecordStatusFromPartner(99))
}

func TestOnlySubmittedIsTerminal(t *testing.T) {
	require.True(t, RecordStatusSubmitted.IsTerminal())
	require.False(t, RecordStatusResulted.IsTerminal())
	require.False(t, RecordStatusPending.IsTerminal())
	require.False(t, RecordStatusSubmitFailed.IsTerminal())
}
