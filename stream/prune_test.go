package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/record"
)

func TestPruneBeforeInternalRecordID(t *testing.T) {
	pred := PruneBeforeInternalRecordID(5)

	assert.True(t, pred(4, time.Now()))
	assert.True(t, pred(5, time.Now()))
	assert.False(t, pred(6, time.Now()))
}

func TestPruneBeforeTimestamp(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pred, err := PruneBeforeTimestamp(cutoff)
	require.NoError(t, err)

	assert.True(t, pred(1, cutoff.Add(-time.Second)))
	assert.True(t, pred(1, cutoff))
	assert.False(t, pred(1, cutoff.Add(time.Second)))
}

func TestPruneBeforeTimestampRejectsNonUTC(t *testing.T) {
	local := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	_, err := PruneBeforeTimestamp(local)
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}

func TestPruneOptionsValidate(t *testing.T) {
	assert.Error(t, PruneOptions{}.Validate())
	assert.NoError(t, PruneOptions{Predicate: PruneBeforeInternalRecordID(1)}.Validate())
}

func TestPutResultValidate(t *testing.T) {
	id := int64(1)
	assert.NoError(t, PutResult{InternalID: &id}.Validate())
	assert.NoError(t, PutResult{ExistingInternalIDs: []int64{2}}.Validate())
	assert.Error(t, PutResult{}.Validate())
}

func TestGetOptionsDefaults(t *testing.T) {
	var o GetOptions
	assert.Equal(t, record.NotFoundReturnDefault, o.NotFoundStrategy())
	assert.Equal(t, record.OrderInternalRecordIDAscending, o.EffectiveOrder())

	o.NotFound = record.NotFoundThrow
	o.Order = record.OrderRandom
	assert.Equal(t, record.NotFoundThrow, o.NotFoundStrategy())
	assert.Equal(t, record.OrderRandom, o.EffectiveOrder())
}

func TestTryHandleOptionsFilter(t *testing.T) {
	typeOfObject := record.NewTypeRepresentationPair("shop", "Order", "1")
	o := TryHandleOptions{
		TypeOfObject: &typeOfObject,
		Tags:         []record.Tag{{Name: "env", Value: "prod"}},
	}

	f := o.Filter()
	assert.Nil(t, f.ID)
	assert.Equal(t, &typeOfObject, f.TypeOfObject)
	assert.Len(t, f.Tags, 1)
	assert.Equal(t, record.OrderInternalRecordIDAscending, o.EffectiveOrder())
}
