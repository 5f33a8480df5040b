package record

import (
	"bytes"
	"fmt"
	"strings"
)

// SerializerKind identifies the serialization format of a payload. The
// lower-camel rendering of string kinds doubles as the file backend's
// payload file extension; binary payloads always use "bin".
type SerializerKind int

const (
	// SerializerKindInvalid is the invalid zero value.
	SerializerKindInvalid SerializerKind = iota

	// SerializerKindJSON is a JSON text payload.
	SerializerKindJSON

	// SerializerKindString is a raw string payload.
	SerializerKindString

	// SerializerKindBinary is an opaque byte payload.
	SerializerKindBinary
)

// String implements fmt.Stringer.
func (k SerializerKind) String() string {
	switch k {
	case SerializerKindJSON:
		return "Json"
	case SerializerKindString:
		return "String"
	case SerializerKindBinary:
		return "Binary"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// IsValid reports whether the kind is one of the closed set.
func (k SerializerKind) IsValid() bool {
	return k == SerializerKindJSON || k == SerializerKindString || k == SerializerKindBinary
}

// FileExtension returns the on-disk payload file extension for the kind.
func (k SerializerKind) FileExtension() (string, error) {
	switch k {
	case SerializerKindJSON:
		return "json", nil
	case SerializerKindString:
		return "string", nil
	case SerializerKindBinary:
		return "bin", nil
	default:
		return "", NewUnsupportedValueError("SerializerKind", k.String())
	}
}

// ParseSerializerKindExtension is the inverse of FileExtension.
func ParseSerializerKindExtension(ext string) (SerializerKind, error) {
	switch strings.ToLower(ext) {
	case "json":
		return SerializerKindJSON, nil
	case "string":
		return SerializerKindString, nil
	case "bin":
		return SerializerKindBinary, nil
	default:
		return SerializerKindInvalid, NewUnsupportedValueError("SerializerKind extension", ext)
	}
}

// SerializerRepresentation describes the serializer that produced a
// payload: its kind and, optionally, the type of its configuration.
type SerializerRepresentation struct {
	Kind       SerializerKind          `json:"kind" yaml:"kind"`
	ConfigType *TypeRepresentationPair `json:"configType,omitempty" yaml:"configType,omitempty"`
}

// Validate checks the representation's kind.
func (r SerializerRepresentation) Validate() error {
	if !r.Kind.IsValid() {
		return NewUnsupportedValueError("SerializerKind", r.Kind.String())
	}
	if r.ConfigType != nil {
		if err := r.ConfigType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Payload is an opaque serialized object. Exactly one of Text or Data is
// meaningful, selected by the kind: binary payloads carry Data, all string
// kinds carry Text. The store never inspects payload contents beyond
// equality checks.
type Payload struct {
	Kind SerializerKind `json:"kind" yaml:"kind"`
	Text string         `json:"text,omitempty" yaml:"text,omitempty"`
	Data []byte         `json:"data,omitempty" yaml:"data,omitempty"`
}

// IsBinary reports whether the payload carries bytes rather than text.
func (p Payload) IsBinary() bool {
	return p.Kind == SerializerKindBinary
}

// Equal reports whether two payloads carry the same kind and content.
func (p Payload) Equal(o Payload) bool {
	if p.Kind != o.Kind {
		return false
	}
	if p.IsBinary() {
		return bytes.Equal(p.Data, o.Data)
	}
	return p.Text == o.Text
}

// Validate checks the payload's kind and that content matches the kind.
func (p Payload) Validate() error {
	if !p.Kind.IsValid() {
		return NewUnsupportedValueError("SerializerKind", p.Kind.String())
	}
	if p.IsBinary() && p.Text != "" {
		return NewValidationError("Payload", "Text", "must be empty for binary payloads")
	}
	if !p.IsBinary() && len(p.Data) != 0 {
		return NewValidationError("Payload", "Data", "must be empty for string payloads")
	}
	return nil
}
