package sqlitestream_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/sqlitestream"
	"github.com/strandkit/strand/stream"
	"github.com/strandkit/strand/stream/streamtest"
)

func newStream(t *testing.T) stream.Stream {
	t.Helper()
	root := t.TempDir()
	s, err := sqlitestream.New("contract", locator.NewSingleResolver(locator.FileSystem{RootPath: root}), sqlitestream.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	streamtest.Run(t, newStream)
}

func TestRequiresFileSystemLocator(t *testing.T) {
	s, err := sqlitestream.New("contract", locator.NewSingleResolver(locator.Memory{Name: "p0"}), sqlitestream.Options{})
	require.NoError(t, err)
	defer s.Close()
	err = s.Create(context.Background(), stream.CreateOptions{})
	require.Error(t, err)
	assert.True(t, record.IsValidation(err))
}

// TestDatabaseFilePerPartition pins the on-disk shape: one database file
// named after the stream.
func TestDatabaseFilePerPartition(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := sqlitestream.New("orders", locator.NewSingleResolver(locator.FileSystem{RootPath: root}), sqlitestream.Options{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))
	_, err = os.Stat(filepath.Join(root, "orders.db"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, stream.DeleteOptions{}))
	_, err = os.Stat(filepath.Join(root, "orders.db"))
	assert.True(t, os.IsNotExist(err))
}

// TestReopenExistingStream checks that a second Stream instance over the
// same database sees everything the first wrote, counters included.
func TestReopenExistingStream(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	resolver := locator.NewSingleResolver(locator.FileSystem{RootPath: root})

	first, err := sqlitestream.New("orders", resolver, sqlitestream.Options{})
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
	require.NoError(t, first.Close())

	second, err := sqlitestream.New("orders", resolver, sqlitestream.Options{})
	require.NoError(t, err)
	defer second.Close()

	latest, err := second.GetLatestRecordByID(ctx, "order-1", stream.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, *putResult.InternalID, latest.InternalID)
	assert.Equal(t, `{"total":1}`, latest.Payload.Text)

	next, err := second.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindJSON, Text: `{"total":2}`}, stream.PutOptions{})
	require.NoError(t, err)
	assert.Greater(t, *next.InternalID, *putResult.InternalID)
}

// TestBinaryPayloadRoundTrip stores an opaque byte payload.
func TestBinaryPayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStream(t)
	require.NoError(t, s.Create(ctx, stream.CreateOptions{}))

	id := "blob-1"
	metadata := record.Metadata{
		StringSerializedID: &id,
		Serializer:         record.SerializerRepresentation{Kind: record.SerializerKindBinary},
		TypeOfID:           record.NewTypeRepresentationPair("contract", "StringID", "1"),
		TypeOfObject:       record.NewTypeRepresentationPair("contract", "Blob", "1"),
		TimestampUTC:       time.Now().UTC(),
	}
	data := []byte{0x00, 0x01, 0xFF, 0xFE}
	_, err := s.Put(ctx, metadata, record.Payload{Kind: record.SerializerKindBinary, Data: data}, stream.PutOptions{})
	require.NoError(t, err)

	latest, err := s.GetLatestRecordByID(ctx, "blob-1", stream.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, record.SerializerKindBinary, latest.Payload.Kind)
	assert.Equal(t, data, latest.Payload.Data)
}
