// Package streamtest is the backend contract suite: every stream.Stream
// implementation must pass Run unchanged. Backends call it from their own
// test files with a factory producing a fresh, uncreated stream.
package streamtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// Factory produces a fresh stream that has not been created yet. Each
// subtest gets its own instance.
type Factory func(t *testing.T) stream.Stream

// Run exercises the full stream contract against the factory's backend.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s stream.Stream)
	}{
		{"CreateAndDelete", testCreateAndDelete},
		{"OperationsBeforeCreate", testOperationsBeforeCreate},
		{"PutRoundTrip", testPutRoundTrip},
		{"InternalIDsStrictlyIncrease", testInternalIDsStrictlyIncrease},
		{"ExplicitInternalID", testExplicitInternalID},
		{"DoNotWriteIfFound", testDoNotWriteIfFound},
		{"ThrowIfFound", testThrowIfFound},
		{"RetentionPruning", testRetentionPruning},
		{"RetentionCountValidation", testRetentionCountValidation},
		{"NotFoundStrategies", testNotFoundStrategies},
		{"DistinctIDs", testDistinctIDs},
		{"TagFiltering", testTagFiltering},
		{"UniqueLongsStrictlyIncrease", testUniqueLongsStrictlyIncrease},
		{"HandlingLifecycle", testHandlingLifecycle},
		{"ClaimedRecordStaysClaimed", testClaimedRecordStaysClaimed},
		{"RetryAfterFailure", testRetryAfterFailure},
		{"DisableRecord", testDisableRecord},
		{"StreamGate", testStreamGate},
		{"ReservedConcerns", testReservedConcerns},
		{"MetadataOnlyClaim", testMetadataOnlyClaim},
		{"MinimumInternalRecordID", testMinimumInternalRecordID},
		{"HandlingStatusQueries", testHandlingStatusQueries},
		{"PruneRemovesRecordsAndHistory", testPruneRemovesRecordsAndHistory},
		{"IllegalTransitions", testIllegalTransitions},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, factory(t))
		})
	}
}

const testConcern = "contract-suite"

func ctxBg() context.Context { return context.Background() }

func metadataFor(id string, tags ...record.Tag) record.Metadata {
	return record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
		TypeOfID:           record.NewTypeRepresentationPair("contract", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("contract", "Widget", "1"),
		Tags:               tags,
		TimestampUTC:       time.Now().UTC(),
	}
}

func metadataAt(id string, ts time.Time) record.Metadata {
	m := metadataFor(id)
	m.TimestampUTC = ts.UTC()
	return m
}

func payloadFor(text string) record.Payload {
	return record.Payload{Kind: record.SerializerKindJSON, Text: text}
}

func mustCreate(t *testing.T, s stream.Stream) {
	t.Helper()
	require.NoError(t, s.Create(ctxBg(), stream.CreateOptions{}))
}

func mustPut(t *testing.T, s stream.Stream, id, text string, tags ...record.Tag) int64 {
	t.Helper()
	result, err := s.Put(ctxBg(), metadataFor(id, tags...), payloadFor(text), stream.PutOptions{})
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.NotNil(t, result.InternalID)
	return *result.InternalID
}

func mustClaim(t *testing.T, s stream.Stream, concern string) record.Record {
	t.Helper()
	result, err := s.TryHandleRecord(ctxBg(), concern, stream.TryHandleOptions{})
	require.NoError(t, err)
	require.False(t, result.Blocked)
	require.NotNil(t, result.Record)
	return *result.Record
}

func testCreateAndDelete(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	err := s.Create(ctx, stream.CreateOptions{ExistingStream: stream.ExistingStreamThrow})
	require.Error(t, err)
	assert.True(t, record.IsConflict(err))

	require.NoError(t, s.Create(ctx, stream.CreateOptions{ExistingStream: stream.ExistingStreamSkip}))

	mustPut(t, s, "w1", `{"n":1}`)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{ExistingStream: stream.ExistingStreamOverwrite}))
	exists, err := s.DoesAnyExistByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	assert.False(t, exists, "overwrite must clear existing records")

	require.NoError(t, s.Delete(ctx, stream.DeleteOptions{}))
	err = s.Delete(ctx, stream.DeleteOptions{})
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err))
	require.NoError(t, s.Delete(ctx, stream.DeleteOptions{SkipIfNotFound: true}))
}

func testOperationsBeforeCreate(t *testing.T, s stream.Stream) {
	_, err := s.Put(ctxBg(), metadataFor("w1"), payloadFor(`{}`), stream.PutOptions{})
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err))
}

func testPutRoundTrip(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	mustPut(t, s, "w1", `{"n":1}`)
	second := mustPut(t, s, "w1", `{"n":2}`)

	latest, err := s.GetLatestRecordByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.InternalID)
	assert.Equal(t, `{"n":2}`, latest.Payload.Text)
	assert.Equal(t, record.SerializerKindJSON, latest.Payload.Kind)
	require.NotNil(t, latest.Metadata.StringSerializedID)
	assert.Equal(t, "w1", *latest.Metadata.StringSerializedID)

	all, err := s.GetAllRecordsByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, `{"n":1}`, all[0].Payload.Text)
	assert.Equal(t, `{"n":2}`, all[1].Payload.Text)

	metadata, err := s.GetAllRecordsMetadataByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	require.Len(t, metadata, 2)

	byInternal, err := s.GetRecordByInternalID(ctx, second, stream.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, byInternal)
	assert.Equal(t, `{"n":2}`, byInternal.Payload.Text)
}

func testInternalIDsStrictlyIncrease(t *testing.T, s stream.Stream) {
	mustCreate(t, s)
	var prev int64
	for i := 0; i < 5; i++ {
		id := mustPut(t, s, "w1", `{"n":1}`)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func testExplicitInternalID(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	explicit := int64(100)
	result, err := s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":1}`), stream.PutOptions{InternalID: &explicit})
	require.NoError(t, err)
	require.NotNil(t, result.InternalID)
	assert.Equal(t, explicit, *result.InternalID)

	// Same explicit id again is a conflict.
	_, err = s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":2}`), stream.PutOptions{InternalID: &explicit})
	require.Error(t, err)
	assert.True(t, record.IsConflict(err))

	// The explicit id raised the high-water mark: the next auto id lands
	// above it.
	next := mustPut(t, s, "w1", `{"n":3}`)
	assert.Greater(t, next, explicit)
}

func testDoNotWriteIfFound(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	result, err := s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":2}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordDoNotWriteIfFoundByID,
	})
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	assert.Nil(t, result.InternalID)
	assert.Equal(t, []int64{first}, result.ExistingInternalIDs)

	all, err := s.GetAllRecordsByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Content-sensitive variant writes when the payload differs.
	result, err = s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":2}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent,
	})
	require.NoError(t, err)
	assert.NotNil(t, result.InternalID)

	// And suppresses an exact duplicate.
	result, err = s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":2}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent,
	})
	require.NoError(t, err)
	assert.Nil(t, result.InternalID)
}

func testThrowIfFound(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	mustPut(t, s, "w1", `{"n":1}`)
	_, err := s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":2}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordThrowIfFoundByID,
	})
	require.Error(t, err)
	assert.True(t, record.IsConflict(err))

	// A different id writes fine.
	_, err = s.Put(ctx, metadataFor("w2"), payloadFor(`{"n":1}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordThrowIfFoundByID,
	})
	require.NoError(t, err)
}

func testRetentionPruning(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	second := mustPut(t, s, "w1", `{"n":2}`)

	retain := 2
	result, err := s.Put(ctx, metadataFor("w1"), payloadFor(`{"n":3}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordPruneIfFoundByID,
		RetentionCount: &retain,
	})
	require.NoError(t, err)
	require.NotNil(t, result.InternalID)
	assert.Equal(t, []int64{first}, result.PrunedInternalIDs, "only the oldest excess record is pruned")

	all, err := s.GetAllRecordsByID(ctx, "w1", stream.GetOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].InternalID)
	assert.Equal(t, *result.InternalID, all[1].InternalID)
}

func testRetentionCountValidation(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	_, err := s.Put(ctx, metadataFor("w1"), payloadFor(`{}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordPruneIfFoundByID,
	})
	require.Error(t, err)
	assert.True(t, record.IsValidation(err), "prune strategy requires a retention count")

	zero := 0
	_, err = s.Put(ctx, metadataFor("w1"), payloadFor(`{}`), stream.PutOptions{
		ExistingRecord: record.ExistingRecordPruneIfFoundByID,
		RetentionCount: &zero,
	})
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))

	one := 1
	_, err = s.Put(ctx, metadataFor("w1"), payloadFor(`{}`), stream.PutOptions{RetentionCount: &one})
	require.Error(t, err)
	assert.True(t, record.IsValidation(err), "retention count is only allowed with prune strategies")
}

func testNotFoundStrategies(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	latest, err := s.GetLatestRecordByID(ctx, "missing", stream.GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.GetLatestRecordByID(ctx, "missing", stream.GetOptions{NotFound: record.NotFoundThrow})
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err))

	_, err = s.GetRecordByInternalID(ctx, 999, stream.GetOptions{NotFound: record.NotFoundThrow})
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err))

	exists, err := s.DoesAnyExistByID(ctx, "missing", stream.GetOptions{})
	require.NoError(t, err)
	assert.False(t, exists)
}

func testDistinctIDs(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	mustPut(t, s, "w1", `{"n":1}`)
	mustPut(t, s, "w2", `{"n":2}`)
	mustPut(t, s, "w1", `{"n":3}`)

	ids, err := s.GetDistinctStringSerializedIDs(ctx, stream.GetOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"w1", "w2"}, ids)
}

func testTagFiltering(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	env := record.Tag{Name: "env", Value: "prod"}
	mustPut(t, s, "w1", `{"n":1}`, env)
	mustPut(t, s, "w1", `{"n":2}`)

	all, err := s.GetAllRecordsByID(ctx, "w1", stream.GetOptions{Tags: []record.Tag{env}})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, `{"n":1}`, all[0].Payload.Text)
}

func testUniqueLongsStrictlyIncrease(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	var prev int64
	for i := 0; i < 5; i++ {
		value, err := s.GetNextUniqueLong(ctx, "suite", stream.UniqueLongOptions{})
		require.NoError(t, err)
		assert.Greater(t, value, prev)
		prev = value
	}
}

func testHandlingLifecycle(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	second := mustPut(t, s, "w2", `{"n":2}`)

	claimed := mustClaim(t, s, testConcern)
	assert.Equal(t, first, claimed.InternalID, "default order claims the lowest id")
	assert.Equal(t, `{"n":1}`, claimed.Payload.Text)

	// First appearance writes a baseline entry before the Running entry.
	history, err := s.GetHandlingHistory(ctx, testConcern, first, stream.HandlingQueryOptions{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, record.StatusAvailableByDefault, history[0].Status)
	assert.Equal(t, record.StatusRunning, history[1].Status)
	assert.Greater(t, history[1].InternalEntryID, history[0].InternalEntryID)

	err = s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusCompleted,
		Details:   "done",
	})
	require.NoError(t, err)

	claimed = mustClaim(t, s, testConcern)
	assert.Equal(t, second, claimed.InternalID, "completed records are not re-claimed")

	err = s.UpdateHandlingStatusForRecord(ctx, second, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusCompleted,
	})
	require.NoError(t, err)

	result, err := s.TryHandleRecord(ctx, testConcern, stream.TryHandleOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.Record, "nothing eligible once all records completed")
	assert.False(t, result.Blocked)
}

func testClaimedRecordStaysClaimed(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	claimed := mustClaim(t, s, testConcern)
	require.Equal(t, first, claimed.InternalID)

	// A Running record is ineligible for the same concern...
	result, err := s.TryHandleRecord(ctx, testConcern, stream.TryHandleOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.Record)

	// ...but a different concern has its own ledger.
	other := mustClaim(t, s, "other-concern")
	assert.Equal(t, first, other.InternalID)
}

func testRetryAfterFailure(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	mustClaim(t, s, testConcern)

	require.NoError(t, s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusFailed,
		Details:   "boom",
	}))

	// Failed is terminal until explicitly retried.
	result, err := s.TryHandleRecord(ctx, testConcern, stream.TryHandleOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.Record)

	require.NoError(t, s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusAvailableAfterFailure,
	}))

	claimed := mustClaim(t, s, testConcern)
	assert.Equal(t, first, claimed.InternalID)
}

func testDisableRecord(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	first := mustPut(t, s, "w1", `{"n":1}`)
	second := mustPut(t, s, "w2", `{"n":2}`)
	mustClaim(t, s, testConcern)

	require.NoError(t, s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusDisabledForRecord,
	}))

	// The disabled record is skipped for every concern.
	claimed := mustClaim(t, s, testConcern)
	assert.Equal(t, second, claimed.InternalID)
	otherResult, err := s.TryHandleRecord(ctx, "other-concern", stream.TryHandleOptions{})
	require.NoError(t, err)
	require.NotNil(t, otherResult.Record)
	assert.Equal(t, second, otherResult.Record.InternalID)
}

func testStreamGate(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)
	mustPut(t, s, "w1", `{"n":1}`)

	require.NoError(t, s.UpdateHandlingStatusForStream(ctx, record.StatusDisabledForStream, stream.UpdateStreamHandlingOptions{
		Details: "maintenance",
	}))

	result, err := s.TryHandleRecord(ctx, testConcern, stream.TryHandleOptions{})
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Nil(t, result.Record)

	// Strict toggle: disabling twice is a protocol error.
	err = s.UpdateHandlingStatusForStream(ctx, record.StatusDisabledForStream, stream.UpdateStreamHandlingOptions{})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	statuses, err := s.GetHandlingStatusForRecords(ctx, testConcern, []string{"w1"}, stream.HandlingStatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, record.StatusDisabledForStream, statuses["w1"])

	require.NoError(t, s.UpdateHandlingStatusForStream(ctx, record.StatusAvailableByDefault, stream.UpdateStreamHandlingOptions{}))

	// Enabling an enabled stream is a protocol error too.
	err = s.UpdateHandlingStatusForStream(ctx, record.StatusAvailableByDefault, stream.UpdateStreamHandlingOptions{})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	claimed := mustClaim(t, s, testConcern)
	assert.Equal(t, `{"n":1}`, claimed.Payload.Text)
}

func testReservedConcerns(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)
	first := mustPut(t, s, "w1", `{"n":1}`)

	for _, concern := range []string{record.StreamHandlingDisabledConcern, record.RecordHandlingDisabledConcern} {
		_, err := s.TryHandleRecord(ctx, concern, stream.TryHandleOptions{})
		require.Error(t, err)
		assert.True(t, record.IsValidation(err))

		err = s.UpdateHandlingStatusForRecord(ctx, first, concern, stream.UpdateHandlingOptions{
			NewStatus: record.StatusCompleted,
		})
		require.Error(t, err)
		assert.True(t, record.IsValidation(err))
	}
}

func testMetadataOnlyClaim(t *testing.T, s stream.Stream) {
	mustCreate(t, s)
	mustPut(t, s, "w1", `{"n":1}`)

	result, err := s.TryHandleRecord(ctxBg(), testConcern, stream.TryHandleOptions{MetadataOnly: true})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Empty(t, result.Record.Payload.Text)
	assert.Empty(t, result.Record.Payload.Data)
	require.NotNil(t, result.Record.Metadata.StringSerializedID)
	assert.Equal(t, "w1", *result.Record.Metadata.StringSerializedID)
}

func testMinimumInternalRecordID(t *testing.T, s stream.Stream) {
	mustCreate(t, s)
	mustPut(t, s, "w1", `{"n":1}`)
	second := mustPut(t, s, "w2", `{"n":2}`)

	result, err := s.TryHandleRecord(ctxBg(), testConcern, stream.TryHandleOptions{
		MinimumInternalRecordID: &second,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Equal(t, second, result.Record.InternalID)
}

func testHandlingStatusQueries(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	env := record.Tag{Name: "env", Value: "prod"}
	first := mustPut(t, s, "w1", `{"n":1}`, env)
	mustPut(t, s, "w2", `{"n":2}`)

	statuses, err := s.GetHandlingStatusForRecords(ctx, testConcern, []string{"w1", "w2"}, stream.HandlingStatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, record.StatusAvailableByDefault, statuses["w1"])
	assert.Equal(t, record.StatusAvailableByDefault, statuses["w2"])

	mustClaim(t, s, testConcern)
	require.NoError(t, s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusCompleted,
	}))

	statuses, err = s.GetHandlingStatusForRecords(ctx, testConcern, []string{"w1", "w2"}, stream.HandlingStatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, record.StatusCompleted, statuses["w1"])
	assert.Equal(t, record.StatusAvailableByDefault, statuses["w2"])

	byTag, err := s.GetHandlingStatusForTags(ctx, testConcern, []record.Tag{env}, stream.HandlingStatusOptions{})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, record.StatusCompleted, byTag[first])
}

func testPruneRemovesRecordsAndHistory(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)

	old := time.Now().UTC().Add(-48 * time.Hour)
	oldResult, err := s.Put(ctx, metadataAt("old", old), payloadFor(`{"n":1}`), stream.PutOptions{})
	require.NoError(t, err)
	require.NotNil(t, oldResult.InternalID)
	oldID := *oldResult.InternalID
	fresh := mustPut(t, s, "fresh", `{"n":2}`)

	mustClaim(t, s, testConcern)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	pred, err := stream.PruneBeforeTimestamp(cutoff)
	require.NoError(t, err)
	require.NoError(t, s.Prune(ctx, stream.PruneOptions{
		Predicate: pred,
		Details:   "suite cleanup",
	}))

	exists, err := s.DoesAnyExistByID(ctx, "old", stream.GetOptions{})
	require.NoError(t, err)
	assert.False(t, exists)

	history, err := s.GetHandlingHistory(ctx, testConcern, oldID, stream.HandlingQueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, history, "pruned records lose their handling history")

	stillThere, err := s.GetRecordByInternalID(ctx, fresh, stream.GetOptions{})
	require.NoError(t, err)
	assert.NotNil(t, stillThere)

	// Prune by id threshold removes everything at or below it.
	require.NoError(t, s.Prune(ctx, stream.PruneOptions{
		Predicate: stream.PruneBeforeInternalRecordID(fresh),
	}))
	gone, err := s.GetRecordByInternalID(ctx, fresh, stream.GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testIllegalTransitions(t *testing.T, s stream.Stream) {
	ctx := ctxBg()
	mustCreate(t, s)
	first := mustPut(t, s, "w1", `{"n":1}`)

	// Completed requires Running; the record is still AvailableByDefault.
	err := s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	mustClaim(t, s, testConcern)

	// Running is not a requestable target.
	err = s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusRunning,
	})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	// AvailableAfterFailure requires Failed, not Running.
	err = s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusAvailableAfterFailure,
	})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	// The acceptable-current-statuses guard narrows further.
	err = s.UpdateHandlingStatusForRecord(ctx, first, testConcern, stream.UpdateHandlingOptions{
		NewStatus:                 record.StatusCompleted,
		AcceptableCurrentStatuses: []record.HandlingStatus{record.StatusFailed},
	})
	require.Error(t, err)
	assert.True(t, record.IsProtocol(err))

	// Unknown record id is not found regardless of status.
	err = s.UpdateHandlingStatusForRecord(ctx, 9999, testConcern, stream.UpdateHandlingOptions{
		NewStatus: record.StatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err))
}
