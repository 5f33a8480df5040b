package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistingRecordStrategyPredicates(t *testing.T) {
	tests := []struct {
		strategy       ExistingRecordStrategy
		needsRetention bool
		onType         bool
		onContent      bool
	}{
		{ExistingRecordNone, false, false, false},
		{ExistingRecordThrowIfFoundByID, false, false, false},
		{ExistingRecordThrowIfFoundByIDAndType, false, true, false},
		{ExistingRecordThrowIfFoundByIDAndTypeAndContent, false, true, true},
		{ExistingRecordDoNotWriteIfFoundByID, false, false, false},
		{ExistingRecordDoNotWriteIfFoundByIDAndType, false, true, false},
		{ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent, false, true, true},
		{ExistingRecordPruneIfFoundByID, true, false, false},
		{ExistingRecordPruneIfFoundByIDAndType, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			assert.True(t, tt.strategy.IsValid())
			assert.Equal(t, tt.needsRetention, tt.strategy.RequiresRetentionCount())
			assert.Equal(t, tt.onType, tt.strategy.MatchesOnType())
			assert.Equal(t, tt.onContent, tt.strategy.MatchesOnContent())
		})
	}
}

func TestExistingRecordStrategyZeroValueInvalid(t *testing.T) {
	var s ExistingRecordStrategy
	assert.False(t, s.IsValid())
}

func TestParseOrderRecordsBy(t *testing.T) {
	tests := []struct {
		in   string
		want OrderRecordsBy
	}{
		{"ascending", OrderInternalRecordIDAscending},
		{"InternalRecordIdAscending", OrderInternalRecordIDAscending},
		{"descending", OrderInternalRecordIDDescending},
		{"Random", OrderRandom},
	}
	for _, tt := range tests {
		got, err := ParseOrderRecordsBy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseOrderRecordsBy("newest")
	require.Error(t, err)
}
