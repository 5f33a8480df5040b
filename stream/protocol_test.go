package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/record"
)

func TestValidateRecordTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   record.HandlingStatus
		requested record.HandlingStatus
		ok        bool
	}{
		{"complete_running", record.StatusRunning, record.StatusCompleted, true},
		{"fail_running", record.StatusRunning, record.StatusFailed, true},
		{"external_cancel_running", record.StatusRunning, record.StatusAvailableAfterExternalCancellation, true},
		{"self_cancel_running", record.StatusRunning, record.StatusAvailableAfterSelfCancellation, true},
		{"retry_failed", record.StatusFailed, record.StatusAvailableAfterFailure, true},
		{"archive_failed", record.StatusFailed, record.StatusArchivedAfterFailure, true},
		{"disable_running", record.StatusRunning, record.StatusDisabledForRecord, true},
		{"disable_failed", record.StatusFailed, record.StatusDisabledForRecord, true},

		{"complete_completed", record.StatusCompleted, record.StatusCompleted, false},
		{"complete_available", record.StatusAvailableByDefault, record.StatusCompleted, false},
		{"retry_running", record.StatusRunning, record.StatusAvailableAfterFailure, false},
		{"archive_completed", record.StatusCompleted, record.StatusArchivedAfterFailure, false},
		{"disable_completed", record.StatusCompleted, record.StatusDisabledForRecord, false},
		{"running_not_a_target", record.StatusAvailableByDefault, record.StatusRunning, false},
		{"stream_disable_not_a_target", record.StatusRunning, record.StatusDisabledForStream, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordTransition("Update", "billing", 1, tt.current, tt.requested, nil)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, record.IsProtocol(err))
			}
		})
	}
}

func TestValidateRecordTransitionAcceptableStatuses(t *testing.T) {
	// The table permits Failed -> DisabledForRecord, but the caller only
	// accepts Running as the current status.
	err := ValidateRecordTransition("Update", "billing", 1,
		record.StatusFailed, record.StatusDisabledForRecord,
		[]record.HandlingStatus{record.StatusRunning})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	err = ValidateRecordTransition("Update", "billing", 1,
		record.StatusFailed, record.StatusDisabledForRecord,
		[]record.HandlingStatus{record.StatusRunning, record.StatusFailed})
	assert.NoError(t, err)
}

func TestValidateRecordTransitionErrorDetail(t *testing.T) {
	err := ValidateRecordTransition("Update", "billing", 42,
		record.StatusCompleted, record.StatusFailed, nil)
	require.Error(t, err)

	var protocol *record.ProtocolError
	require.ErrorAs(t, err, &protocol)
	assert.Equal(t, "billing", protocol.Concern)
	assert.Equal(t, int64(42), protocol.InternalRecordID)
	assert.Equal(t, record.StatusCompleted, protocol.Current)
	assert.Equal(t, record.StatusFailed, protocol.Requested)
}

func TestValidateStreamTransition(t *testing.T) {
	// Disabling an enabled stream.
	assert.NoError(t, ValidateStreamTransition("Gate",
		record.StatusAvailableByDefault, record.StatusDisabledForStream))

	// Double disable.
	err := ValidateStreamTransition("Gate",
		record.StatusDisabledForStream, record.StatusDisabledForStream)
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	// Enabling a disabled stream.
	assert.NoError(t, ValidateStreamTransition("Gate",
		record.StatusDisabledForStream, record.StatusAvailableByDefault))

	// Enable without a preceding disable.
	err = ValidateStreamTransition("Gate",
		record.StatusAvailableByDefault, record.StatusAvailableByDefault)
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	// Only the two gate statuses are valid targets.
	err = ValidateStreamTransition("Gate",
		record.StatusAvailableByDefault, record.StatusCompleted)
	require.Error(t, err)
	assert.False(t, record.IsProtocol(err))
}
