package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlingStatusStringRoundTrip(t *testing.T) {
	for status, name := range statusNames {
		got, err := ParseHandlingStatus(name)
		require.NoError(t, err, name)
		assert.Equal(t, status, got)
		assert.Equal(t, name, status.String())
	}
}

func TestParseHandlingStatusCaseInsensitive(t *testing.T) {
	got, err := ParseHandlingStatus("running")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got)

	got, err = ParseHandlingStatus("AVAILABLEBYDEFAULT")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailableByDefault, got)
}

func TestParseHandlingStatusUnknown(t *testing.T) {
	_, err := ParseHandlingStatus("Paused")
	require.Error(t, err)

	var unsupported *UnsupportedValueError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "HandlingStatus", unsupported.Enum)
}

func TestHandlingStatusIsAvailable(t *testing.T) {
	available := []HandlingStatus{
		StatusAvailableByDefault,
		StatusAvailableAfterFailure,
		StatusAvailableAfterSelfCancellation,
		StatusAvailableAfterExternalCancellation,
	}
	for _, s := range available {
		assert.True(t, s.IsAvailable(), s.String())
	}

	unavailable := []HandlingStatus{
		StatusUnknown,
		StatusRunning,
		StatusCompleted,
		StatusFailed,
		StatusArchivedAfterFailure,
		StatusDisabledForRecord,
		StatusDisabledForStream,
	}
	for _, s := range unavailable {
		assert.False(t, s.IsAvailable(), s.String())
	}
}

func TestHandlingStatusIsValid(t *testing.T) {
	assert.False(t, StatusUnknown.IsValid())
	assert.False(t, HandlingStatus(99).IsValid())
	assert.True(t, StatusDisabledForStream.IsValid())
}

func TestReservedConcerns(t *testing.T) {
	assert.True(t, IsReservedConcern(StreamHandlingDisabledConcern))
	assert.True(t, IsReservedConcern(RecordHandlingDisabledConcern))
	assert.False(t, IsReservedConcern(RecordHandlingConcern))
	assert.False(t, IsReservedConcern("billing"))
}
