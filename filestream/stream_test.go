package filestream_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/filestream"
	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
	"github.com/strandkit/strand/stream/streamtest"
)

func newStream(t *testing.T) stream.Stream {
	t.Helper()
	root := t.TempDir()
	s, err := filestream.New("contract", locator.NewSingleResolver(locator.FileSystem{RootPath: root}), filestream.Options{})
	require.NoError(t, err)
	return s
}

func TestContract(t *testing.T) {
	streamtest.Run(t, newStream)
}

func TestRequiresFileSystemLocator(t *testing.T) {
	s, err := filestream.New("contract", locator.NewSingleResolver(locator.Memory{Name: "p0"}), filestream.Options{})
	require.NoError(t, err)
	err = s.Create(context.Background(), stream.CreateOptions{})
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}

// TestOnDiskLayout pins the file naming scheme: a put leaves a payload file,
// a metadata sibling and the counter file, and a claim grows the handling
// tree.
func TestOnDiskLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fixed := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC)
	s, err := filestream.New("orders", locator.NewSingleResolver(locator.FileSystem{RootPath: root}), filestream.Options{
		Now: func() time.Time { return fixed },
	})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	id := "order-1"
	metadata := record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
		TypeOfID:           record.NewTypeRepresentationPair("orders", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("orders", "Order", "1"),
		TimestampUTC:       fixed,
	}
	_, err = s.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{"total":42}`}, stream.PutOptions{})
	require.NoError(t, err)

	dir := filepath.Join(root, "orders")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "_HandlingTracking")
	assert.Contains(t, names, "_InternalRecordIdentifierTracking.nfo")
	payloadName := "0000000001___2026-03-01T12--30--45.123456789Z___b3JkZXItMQ.json"
	assert.Contains(t, names, payloadName)
	assert.Contains(t, names, "0000000001___2026-03-01T12--30--45.123456789Z___b3JkZXItMQ.meta")

	raw, err := os.ReadFile(filepath.Join(dir, payloadName))
	require.NoError(t, err)
	assert.Equal(t, `{"total":42}`, string(raw))

	// A claim materializes the concern directory with baseline plus
	// Running entry files.
	result, err := s.TryHandleRecord(ctx, "fulfillment", stream.TryHandleOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Record)

	concernDir := filepath.Join(dir, "_HandlingTracking", "fulfillment")
	entryFiles, err := os.ReadDir(concernDir)
	require.NoError(t, err)
	require.Len(t, entryFiles, 2)
	assert.Equal(t,
		"0000000001___2026-03-01T12--30--45.123456789Z___Id-0000000001___ExtId-b3JkZXItMQ___Status-AvailableByDefault.json",
		entryFiles[0].Name())
	assert.Equal(t,
		"0000000002___2026-03-01T12--30--45.123456789Z___Id-0000000001___ExtId-b3JkZXItMQ___Status-Running.json",
		entryFiles[1].Name())
}

// TestReopenExistingStream checks that a second Stream instance over the
// same directory sees everything the first wrote.
func TestReopenExistingStream(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	resolver := locator.NewSingleResolver(locator.FileSystem{RootPath: root})

	first, err := filestream.New("orders", resolver, filestream.Options{})
	require.NoError(t, err)
	require.NoError(t, first.Create(ctx, stream.CreateOptions{}))
	id := "order-1"
	metadata := record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
		TypeOfID:           record.NewTypeRepresentationPair("orders", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("orders", "Order", "1"),
		TimestampUTC:       time.Now().UTC(),
	}
	putResult, err := first.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{"total":1}`}, stream.PutOptions{})
	require.NoError(t, err)

	second, err := filestream.New("orders", resolver, filestream.Options{})
	require.NoError(t, err)

	latest, err := second.GetLatestRecordByID(ctx, "order-1", stream.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, *putResult.InternalID, latest.InternalID)
	assert.Equal(t, `{"total":1}`, latest.Payload.Text)

	// Counters continue, not restart.
	next, err := second.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{"total":2}`}, stream.PutOptions{})
	require.NoError(t, err)
	assert.Greater(t, *next.InternalID, *putResult.InternalID)
}

// TestTornWritesAreFatal checks that a partition with an unpaired payload or
// metadata file fails to load instead of silently dropping the stray file.
func TestTornWritesAreFatal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	resolver := locator.NewSingleResolver(locator.FileSystem{RootPath: root})
	fixed := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC)

	s, err := filestream.New("orders", resolver, filestream.Options{
		Now: func() time.Time { return fixed },
	})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))
	id := "order-1"
	metadata := record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindJSON},
		TypeOfID:           record.NewTypeRepresentationPair("orders", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("orders", "Order", "1"),
		TimestampUTC:       fixed,
	}
	_, err = s.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{"total":1}`}, stream.PutOptions{})
	require.NoError(t, err)

	dir := filepath.Join(root, "orders")
	metaName := "0000000001___2026-03-01T12--30--45.123456789Z___b3JkZXItMQ.meta"

	t.Run("metadata without payload", func(t *testing.T) {
		orphan := filepath.Join(dir, "0000000099___2026-03-01T12--30--45.123456789Z___b3JkZXItMQ.meta")
		require.NoError(t, os.WriteFile(orphan, []byte(`{}`), 0o644))
		defer os.Remove(orphan)

		reopened, err := filestream.New("orders", resolver, filestream.Options{})
		require.NoError(t, err)
		_, err = reopened.GetLatestRecordByID(ctx, "order-1", stream.GetOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no payload sibling")
	})

	t.Run("payload without metadata", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, metaName)))

		reopened, err := filestream.New("orders", resolver, filestream.Options{})
		require.NoError(t, err)
		_, err = reopened.GetLatestRecordByID(ctx, "order-1", stream.GetOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no metadata sibling")
	})
}

// TestUniqueLongAuditTrail checks the issuance events in the tracking file.
func TestUniqueLongAuditTrail(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := filestream.New("orders", locator.NewSingleResolver(locator.FileSystem{RootPath: root}), filestream.Options{
		Now:    func() time.Time { return fixed },
		Tokens: stream.NewFixedTokenGenerator("evt-1", "evt-2"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	for i := 1; i <= 2; i++ {
		value, err := s.GetNextUniqueLong(ctx, "invoice number", stream.UniqueLongOptions{})
		require.NoError(t, err)
		require.EqualValues(t, i, value)
	}

	events, err := s.UniqueLongIssuances(ctx, stream.UniqueLongOptions{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, filestream.IssuanceEvent{
		Value:        2,
		Details:      "invoice number",
		EventID:      "evt-2",
		TimestampUTC: fixed,
	}, events[1])
}
