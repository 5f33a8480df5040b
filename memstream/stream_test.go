package memstream_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/memstream"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
	"github.com/strandkit/strand/stream/streamtest"
)

func newStream(t *testing.T) stream.Stream {
	t.Helper()
	s, err := memstream.New("contract", locator.NewSingleResolver(locator.Memory{Name: "p0"}), memstream.Options{})
	require.NoError(t, err)
	return s
}

func TestContract(t *testing.T) {
	streamtest.Run(t, newStream)
}

func TestNewValidation(t *testing.T) {
	_, err := memstream.New("", locator.NewSingleResolver(locator.Memory{Name: "p0"}), memstream.Options{})
	require.Error(t, err)
	require.True(t, record.IsValidation(err))

	_, err = memstream.New("s", nil, memstream.Options{})
	require.Error(t, err)
	require.True(t, record.IsValidation(err))
}

// TestConcurrentClaims races many handlers against few records: every
// record must be claimed exactly once.
func TestConcurrentClaims(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	s := newStream(t)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	const records = 5
	const handlers = 50

	id := "shared"
	for i := 0; i < records; i++ {
		metadata := record.Metadata{
			StringSerializedID: &id,
			Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
			TypeOfID:           record.NewTypeRepresentationPair("mem", "StringID", "1"),
			TypeOfObject:       record.NewTypeRepresentationPair("mem", "Widget", "1"),
			TimestampUTC:       time.Now().UTC(),
		}
		_, err := s.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{}`}, stream.PutOptions{})
		require.NoError(t, err)
	}

	var claimed int64
	seen := make(map[int64]int)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < handlers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.TryHandleRecord(ctx, "race", stream.TryHandleOptions{})
			require.NoError(t, err)
			if result.Record != nil {
				atomic.AddInt64(&claimed, 1)
				mu.Lock()
				seen[result.Record.InternalID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, records, claimed)
	for internalID, count := range seen {
		require.Equal(t, 1, count, "record %d claimed more than once", internalID)
	}
}

// TestUniqueLongIssuanceAudit checks the audit trail the memory backend
// keeps alongside the counter.
func TestUniqueLongIssuanceAudit(t *testing.T) {
	ctx := context.Background()
	resolver := locator.NewSingleResolver(locator.Memory{Name: "p0"})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := memstream.New("audit", resolver, memstream.Options{
		Now:    func() time.Time { return fixed },
		Tokens: stream.NewFixedTokenGenerator("evt-1"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	value, err := s.GetNextUniqueLong(ctx, "order number", stream.UniqueLongOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, value)

	events, err := s.UniqueLongIssuances(ctx, stream.UniqueLongOptions{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, memstream.IssuanceEvent{
		Value:        1,
		Details:      "order number",
		EventID:      "evt-1",
		TimestampUTC: fixed,
	}, events[0])
}

// TestMultiPartition exercises an explicit locator against a resolver with
// two partitions.
func TestMultiPartition(t *testing.T) {
	ctx := context.Background()
	a := locator.Memory{Name: "a"}
	b := locator.Memory{Name: "b"}
	s, err := memstream.New("sharded", twoPartitionResolver{a: a, b: b}, memstream.Options{})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	id := "w1"
	metadata := record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
		TypeOfID:           record.NewTypeRepresentationPair("mem", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("mem", "Widget", "1"),
		TimestampUTC:       time.Now().UTC(),
	}
	payload := record.Payload{Kind: record.SerializerKindJSON, Text: `{}`}

	// Without an explicit locator a two-partition resolver is ambiguous.
	_, err = s.Put(ctx, metadata, payload, stream.PutOptions{})
	require.Error(t, err)
	require.True(t, record.IsValidation(err))

	_, err = s.Put(ctx, metadata, payload, stream.PutOptions{Locator: a})
	require.NoError(t, err)

	exists, err := s.DoesAnyExistByID(ctx, "w1", stream.GetOptions{Locator: b})
	require.NoError(t, err)
	require.False(t, exists)

	// TryHandleRecord without a locator scans partitions in resolver
	// order and finds the record in a.
	result, err := s.TryHandleRecord(ctx, "work", stream.TryHandleOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
}

type twoPartitionResolver struct {
	a, b locator.Memory
}

func (r twoPartitionResolver) ResolveAll(ctx context.Context) ([]locator.Locator, error) {
	return []locator.Locator{r.a, r.b}, nil
}

func (r twoPartitionResolver) ResolveForID(ctx context.Context, id string) (locator.Locator, error) {
	return r.a, nil
}
