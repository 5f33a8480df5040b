package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/record"
)

func testRecord(id int64, stringID string, ts time.Time, tags ...record.Tag) record.Record {
	return record.Record{
		InternalID: id,
		Metadata: record.Metadata{
			StringSerializedID: &stringID,
			Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
			TypeOfID:           record.NewTypeRepresentationPair("t", "ID", "1"),
			TypeOfObject:       record.NewTypeRepresentationPair("t", "Obj", "1"),
			Tags:               tags,
			TimestampUTC:       ts.UTC(),
		},
		Payload: record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
	}
}

func testEntry(entryID, recordID int64, concern string, status record.HandlingStatus, ts time.Time) record.HandlingEntry {
	return record.HandlingEntry{
		InternalEntryID:  entryID,
		InternalRecordID: recordID,
		Concern:          concern,
		Status:           status,
		TimestampUTC:     ts.UTC(),
	}
}

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestAppendRecordKeepsOrder(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(2, "b", t0))
	s.AppendRecord(testRecord(5, "e", t0))
	// Explicit-id put below the current maximum.
	s.AppendRecord(testRecord(3, "c", t0))

	require.Len(t, s.Records, 3)
	assert.Equal(t, int64(2), s.Records[0].InternalID)
	assert.Equal(t, int64(3), s.Records[1].InternalID)
	assert.Equal(t, int64(5), s.Records[2].InternalID)
	assert.Equal(t, int64(5), s.MaxRecordID())
}

func TestRecordByInternalID(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))
	s.AppendRecord(testRecord(3, "c", t0))

	require.NotNil(t, s.RecordByInternalID(3))
	assert.Nil(t, s.RecordByInternalID(2))
	assert.True(t, s.HasRecord(1))
	assert.False(t, s.HasRecord(9))
}

func TestCurrentStatusDerivation(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))

	// No entries at all: available by default.
	assert.Equal(t, record.StatusAvailableByDefault, s.CurrentStatus("billing", 1))

	s.AppendEntry(testEntry(1, 1, "billing", record.StatusAvailableByDefault, t0))
	s.AppendEntry(testEntry(2, 1, "billing", record.StatusRunning, t0))
	assert.Equal(t, record.StatusRunning, s.CurrentStatus("billing", 1))

	s.AppendEntry(testEntry(3, 1, "billing", record.StatusCompleted, t0))
	assert.Equal(t, record.StatusCompleted, s.CurrentStatus("billing", 1))

	// Other concerns are unaffected.
	assert.Equal(t, record.StatusAvailableByDefault, s.CurrentStatus("shipping", 1))
}

func TestCurrentRecordStatusMergesDisableLedger(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))
	s.AppendEntry(testEntry(1, 1, "billing", record.StatusRunning, t0))
	s.AppendEntry(testEntry(2, 1, record.RecordHandlingDisabledConcern, record.StatusDisabledForRecord, t0))

	// The disable entry is newer, so it wins for any concern.
	assert.Equal(t, record.StatusDisabledForRecord, s.CurrentRecordStatus("billing", 1))

	// A later entry under the user concern supersedes the disable.
	s.AppendEntry(testEntry(3, 1, "billing", record.StatusAvailableAfterExternalCancellation, t0))
	assert.Equal(t, record.StatusAvailableAfterExternalCancellation, s.CurrentRecordStatus("billing", 1))
}

func TestStreamDisabled(t *testing.T) {
	s := NewState()
	assert.False(t, s.StreamDisabled())

	s.AppendEntry(testEntry(1, record.GlobalBlockingRecordID, record.StreamHandlingDisabledConcern, record.StatusDisabledForStream, t0))
	assert.True(t, s.StreamDisabled())

	s.AppendEntry(testEntry(2, record.GlobalBlockingRecordID, record.StreamHandlingDisabledConcern, record.StatusAvailableByDefault, t0))
	assert.False(t, s.StreamDisabled())
}

func TestRemoveRecordsDropsAllHistory(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))
	s.AppendRecord(testRecord(2, "b", t0))
	s.AppendEntry(testEntry(1, 1, "billing", record.StatusRunning, t0))
	s.AppendEntry(testEntry(2, 2, "billing", record.StatusRunning, t0))
	s.AppendEntry(testEntry(3, record.GlobalBlockingRecordID, record.StreamHandlingDisabledConcern, record.StatusDisabledForStream, t0))

	s.RemoveRecords([]int64{1})

	require.Len(t, s.Records, 1)
	assert.Equal(t, int64(2), s.Records[0].InternalID)
	assert.Empty(t, s.EntriesForRecord("billing", 1))
	assert.Len(t, s.EntriesForRecord("billing", 2), 1)
	// Stream-wide sentinel entries survive record removal.
	assert.True(t, s.StreamDisabled())
}

func TestPlanPrune(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))
	s.AppendRecord(testRecord(2, "b", t0.Add(time.Hour)))
	s.AppendEntry(testEntry(1, 1, "billing", record.StatusCompleted, t0))
	s.AppendEntry(testEntry(2, 2, "billing", record.StatusRunning, t0.Add(time.Hour)))

	recordIDs, entryIDs := s.PlanPrune(func(id int64, ts time.Time) bool {
		return id <= 1
	})
	assert.Equal(t, []int64{1}, recordIDs)
	assert.Equal(t, []int64{1}, entryIDs)

	cutoff := t0.Add(time.Minute)
	recordIDs, entryIDs = s.PlanPrune(func(id int64, ts time.Time) bool {
		return !ts.After(cutoff)
	})
	assert.Equal(t, []int64{1}, recordIDs)
	assert.Equal(t, []int64{1}, entryIDs)
}

func TestMaxEntryID(t *testing.T) {
	s := NewState()
	assert.Equal(t, int64(0), s.MaxEntryID())

	s.AppendEntry(testEntry(4, 1, "billing", record.StatusRunning, t0))
	s.AppendEntry(testEntry(7, 2, "shipping", record.StatusRunning, t0))
	assert.Equal(t, int64(7), s.MaxEntryID())
}

func TestClear(t *testing.T) {
	s := NewState()
	s.AppendRecord(testRecord(1, "a", t0))
	s.AppendEntry(testEntry(1, 1, "billing", record.StatusRunning, t0))

	s.Clear()
	assert.Empty(t, s.Records)
	assert.Equal(t, int64(0), s.MaxEntryID())
}
