package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValidate(t *testing.T) {
	valid := matchMetadata("order-1")
	require.NoError(t, valid.Validate())

	t.Run("zero_timestamp", func(t *testing.T) {
		m := valid
		m.TimestampUTC = time.Time{}
		assert.True(t, IsValidation(m.Validate()))
	})

	t.Run("non_utc_timestamp", func(t *testing.T) {
		m := valid
		m.TimestampUTC = time.Now().In(time.FixedZone("CET", 3600))
		assert.True(t, IsValidation(m.Validate()))
	})

	t.Run("non_utc_object_timestamp", func(t *testing.T) {
		m := valid
		ts := time.Now().In(time.FixedZone("CET", 3600))
		m.ObjectTimestampUTC = &ts
		assert.True(t, IsValidation(m.Validate()))
	})

	t.Run("invalid_serializer", func(t *testing.T) {
		m := valid
		m.Serializer = SerializerRepresentation{}
		require.Error(t, m.Validate())
	})

	t.Run("whitespace_tag_name", func(t *testing.T) {
		m := valid
		m.Tags = []Tag{{Name: "  ", Value: "x"}}
		assert.True(t, IsValidation(m.Validate()))
	})

	t.Run("nil_id_is_fine", func(t *testing.T) {
		m := valid
		m.StringSerializedID = nil
		require.NoError(t, m.Validate())
	})
}

func TestTypeRepresentationPairValidate(t *testing.T) {
	require.NoError(t, NewTypeRepresentationPair("shop", "Order", "1").Validate())
	require.NoError(t, TypeRepresentationPair{}.Validate())

	bad := NewTypeRepresentationPair("shop", "Order", "1")
	bad.WithoutVersion.Name = "Invoice"
	require.Error(t, bad.Validate())

	bad = NewTypeRepresentationPair("shop", "Order", "1")
	bad.WithoutVersion.Version = "1"
	require.Error(t, bad.Validate())
}

func TestPayloadValidate(t *testing.T) {
	require.NoError(t, Payload{Kind: SerializerKindJSON, Text: `{"a":1}`}.Validate())
	require.NoError(t, Payload{Kind: SerializerKindBinary, Data: []byte{1, 2}}.Validate())

	// Content must match the kind.
	require.Error(t, Payload{Kind: SerializerKindBinary, Text: "oops"}.Validate())
	require.Error(t, Payload{Kind: SerializerKindString, Data: []byte{1}}.Validate())
	require.Error(t, Payload{}.Validate())
}

func TestPayloadEqual(t *testing.T) {
	a := Payload{Kind: SerializerKindJSON, Text: `{"a":1}`}
	assert.True(t, a.Equal(Payload{Kind: SerializerKindJSON, Text: `{"a":1}`}))
	assert.False(t, a.Equal(Payload{Kind: SerializerKindString, Text: `{"a":1}`}))

	b := Payload{Kind: SerializerKindBinary, Data: []byte{1, 2, 3}}
	assert.True(t, b.Equal(Payload{Kind: SerializerKindBinary, Data: []byte{1, 2, 3}}))
	assert.False(t, b.Equal(Payload{Kind: SerializerKindBinary, Data: []byte{1, 2}}))
}

func TestSerializerKindExtensionRoundTrip(t *testing.T) {
	for _, kind := range []SerializerKind{SerializerKindJSON, SerializerKindString, SerializerKindBinary} {
		ext, err := kind.FileExtension()
		require.NoError(t, err)
		back, err := ParseSerializerKindExtension(ext)
		require.NoError(t, err)
		assert.Equal(t, kind, back)
	}

	_, err := SerializerKindInvalid.FileExtension()
	require.Error(t, err)
	_, err = ParseSerializerKindExtension("xml")
	require.Error(t, err)
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("Op", "arg", "bad")))
	assert.True(t, IsConflict(NewConflictError("Op", "dup", 1, 2)))
	assert.True(t, IsNotFound(NewNotFoundError("Op", "thing")))
	assert.True(t, IsProtocol(&ProtocolError{Op: "Op", Current: StatusRunning, Requested: StatusRunning}))

	err := NewConflictError("Put", "records exist", 3, 7)
	assert.Contains(t, err.Error(), "[3 7]")
	assert.False(t, IsNotFound(err))
}
