package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/record"
)

func intPtr(n int) *int { return &n }

func seededState() *State {
	s := NewState()
	s.AppendRecord(testRecord(1, "order-1", t0))
	s.AppendRecord(testRecord(2, "order-2", t0))
	s.AppendRecord(testRecord(3, "order-1", t0))
	return s
}

func TestPlanPutNone(t *testing.T) {
	s := seededState()
	d, err := s.PlanPut("Put", testRecord(0, "order-1", t0).Metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
		record.ExistingRecordNone, nil, record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)
	assert.Empty(t, d.ExistingIDs)
	assert.Empty(t, d.PruneIDs)
}

func TestPlanPutThrowIfFound(t *testing.T) {
	s := seededState()
	m := testRecord(0, "order-1", t0).Metadata

	_, err := s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
		record.ExistingRecordThrowIfFoundByID, nil, record.VersionMatchAny, nil)
	require.Error(t, err)
	assert.True(t, record.IsConflict(err))

	var conflict *record.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int64{1, 3}, conflict.ExistingInternalIDs)

	// A fresh id passes the check.
	d, err := s.PlanPut("Put", testRecord(0, "order-9", t0).Metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
		record.ExistingRecordThrowIfFoundByID, nil, record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)
}

func TestPlanPutDoNotWriteIfFound(t *testing.T) {
	s := seededState()
	m := testRecord(0, "order-2", t0).Metadata

	d, err := s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
		record.ExistingRecordDoNotWriteIfFoundByID, nil, record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.False(t, d.Write)
	assert.Equal(t, []int64{2}, d.ExistingIDs)
}

func TestPlanPutContentNarrowing(t *testing.T) {
	s := NewState()
	r := testRecord(1, "order-1", t0)
	r.Payload = record.Payload{Kind: record.SerializerKindJSON, Text: `{"v":1}`}
	s.AppendRecord(r)
	m := testRecord(0, "order-1", t0).Metadata

	// Same id and type but different content: no match, so the write
	// proceeds.
	d, err := s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{"v":2}`},
		record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent, nil, record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)

	// Identical content: skipped.
	d, err = s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{"v":1}`},
		record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent, nil, record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.False(t, d.Write)
	assert.Equal(t, []int64{1}, d.ExistingIDs)
}

func TestPlanPutContentNarrowingUsesLoader(t *testing.T) {
	s := NewState()
	r := testRecord(1, "order-1", t0)
	r.Payload = record.Payload{} // backend keeps payloads out of the state
	s.AppendRecord(r)
	m := testRecord(0, "order-1", t0).Metadata

	loaded := false
	loader := func(id int64) (record.Payload, error) {
		loaded = true
		require.Equal(t, int64(1), id)
		return record.Payload{Kind: record.SerializerKindJSON, Text: `{"v":1}`}, nil
	}

	d, err := s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{"v":1}`},
		record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent, nil, record.VersionMatchAny, loader)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.False(t, d.Write)
}

func TestPlanPutRetention(t *testing.T) {
	s := seededState() // order-1 at ids 1 and 3
	m := testRecord(0, "order-1", t0).Metadata
	payload := record.Payload{Kind: record.SerializerKindJSON, Text: `{}`}

	// Keeping 3: two existing matches plus the incoming write fit exactly.
	d, err := s.PlanPut("Put", m, payload,
		record.ExistingRecordPruneIfFoundByID, intPtr(3), record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)
	assert.Empty(t, d.PruneIDs)

	// Keeping 2: the incoming write takes one slot, so the oldest match goes.
	d, err = s.PlanPut("Put", m, payload,
		record.ExistingRecordPruneIfFoundByID, intPtr(2), record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)
	assert.Equal(t, []int64{1}, d.PruneIDs)

	// Keeping 1: every existing match goes.
	d, err = s.PlanPut("Put", m, payload,
		record.ExistingRecordPruneIfFoundByID, intPtr(1), record.VersionMatchAny, nil)
	require.NoError(t, err)
	assert.True(t, d.Write)
	assert.Equal(t, []int64{1, 3}, d.PruneIDs)
}

func TestPlanPutRetentionRepeatedPuts(t *testing.T) {
	// Three successive puts of the same id with a retention count of 2:
	// after each put the partition must hold at most 2 matches, so the
	// third put prunes the first.
	s := NewState()
	m := testRecord(0, "order-1", t0).Metadata
	payload := record.Payload{Kind: record.SerializerKindJSON, Text: `{}`}

	for i, wantPruned := range [][]int64{nil, nil, {1}} {
		d, err := s.PlanPut("Put", m, payload,
			record.ExistingRecordPruneIfFoundByID, intPtr(2), record.VersionMatchAny, nil)
		require.NoError(t, err)
		require.True(t, d.Write)
		assert.Equal(t, wantPruned, d.PruneIDs, "put %d", i+1)

		s.AppendRecord(testRecord(int64(i+1), "order-1", t0))
		s.RemoveRecords(d.PruneIDs)
	}
}

func TestPlanPutRetentionCountValidation(t *testing.T) {
	s := seededState()
	m := testRecord(0, "order-1", t0).Metadata
	payload := record.Payload{Kind: record.SerializerKindJSON, Text: `{}`}

	// Missing count with a prune strategy.
	_, err := s.PlanPut("Put", m, payload,
		record.ExistingRecordPruneIfFoundByID, nil, record.VersionMatchAny, nil)
	assert.True(t, record.IsValidation(err))

	// Zero count.
	_, err = s.PlanPut("Put", m, payload,
		record.ExistingRecordPruneIfFoundByID, intPtr(0), record.VersionMatchAny, nil)
	assert.True(t, record.IsValidation(err))

	// Count supplied with a non-prune strategy.
	_, err = s.PlanPut("Put", m, payload,
		record.ExistingRecordNone, intPtr(1), record.VersionMatchAny, nil)
	assert.True(t, record.IsValidation(err))
}

func TestPlanPutInvalidStrategy(t *testing.T) {
	s := seededState()
	m := testRecord(0, "order-1", t0).Metadata

	var zero record.ExistingRecordStrategy
	_, err := s.PlanPut("Put", m, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`},
		zero, nil, record.VersionMatchAny, nil)
	require.Error(t, err)
}
