// Package codec defines the payload codec boundary of strand.
//
// The store treats payloads as opaque: it writes and returns them byte for
// byte and only ever compares them for equality (the *AndContent
// existing-record strategies). Codecs therefore must be deterministic — the
// same object must always serialize to the same payload — or content
// comparison becomes meaningless. The JSON codec in this package guarantees
// that with sorted object keys, NFC-normalized strings and no HTML
// escaping.
package codec

import (
	"reflect"

	"github.com/strandkit/strand/record"
)

// Codec serializes objects to payloads and back, and describes objects for
// record metadata. Errors raised by a codec are fatal to the operation that
// invoked it; the core never retries.
type Codec interface {
	// SerializerRepresentation describes this codec for record metadata.
	SerializerRepresentation() record.SerializerRepresentation

	// Serialize turns an object into a payload.
	Serialize(v any) (record.Payload, error)

	// Deserialize populates v (a pointer) from a payload.
	Deserialize(p record.Payload, v any) error

	// TypeOf returns the versioned/versionless type descriptors for an
	// object.
	TypeOf(v any) record.TypeRepresentationPair
}

// TypeOf derives a TypeRepresentationPair from a Go value via reflection:
// the package path becomes the namespace, the type name the name, and the
// supplied version the versioned half's version. Pointers are unwrapped.
func TypeOf(v any, version string) record.TypeRepresentationPair {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return record.TypeRepresentationPair{}
	}
	return record.NewTypeRepresentationPair(t.PkgPath(), t.Name(), version)
}
