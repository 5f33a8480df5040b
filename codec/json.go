package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/strandkit/strand/record"
)

// JSONCodec serializes objects to deterministic JSON text payloads.
//
// Determinism matters because the store compares payloads for equality in
// the *AndContent existing-record strategies: two serializations of the
// same object must be byte-identical. Standard json.Marshal already sorts
// map keys, but struct field order and HTML escaping make its output
// representation-sensitive. JSONCodec therefore round-trips through a
// generic value and re-encodes with:
//   - object keys sorted
//   - HTML escaping disabled (<, > and & are not escaped)
//   - strings NFC-normalized at the serialization boundary
//
// Numbers are preserved via json.Number to avoid float64 precision loss for
// integers beyond 2^53.
type JSONCodec struct {
	// Version, when set, becomes the version of the type descriptors the
	// codec produces.
	Version string
}

// SerializerRepresentation implements Codec.
func (c JSONCodec) SerializerRepresentation() record.SerializerRepresentation {
	config := TypeOf(c, c.Version)
	return record.SerializerRepresentation{
		Kind:       record.SerializerKindJSON,
		ConfigType: &config,
	}
}

// TypeOf implements Codec.
func (c JSONCodec) TypeOf(v any) record.TypeRepresentationPair {
	return TypeOf(v, c.Version)
}

// Serialize implements Codec.
func (c JSONCodec) Serialize(v any) (record.Payload, error) {
	text, err := MarshalDeterministic(v)
	if err != nil {
		return record.Payload{}, fmt.Errorf("json codec serialize: %w", err)
	}
	return record.Payload{Kind: record.SerializerKindJSON, Text: text}, nil
}

// Deserialize implements Codec.
func (c JSONCodec) Deserialize(p record.Payload, v any) error {
	if p.Kind != record.SerializerKindJSON {
		return record.NewValidationError("json codec deserialize", "payload", "kind must be Json, got "+p.Kind.String())
	}
	if err := json.Unmarshal([]byte(p.Text), v); err != nil {
		return fmt.Errorf("json codec deserialize: %w", err)
	}
	return nil
}

// MarshalDeterministic produces deterministic JSON text for any
// json-marshalable value.
func MarshalDeterministic(v any) (string, error) {
	// First pass: let encoding/json apply struct tags and custom
	// marshalers, keeping numbers exact.
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := encodeDeterministic(&buf, generic); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encodeDeterministic(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		buf.WriteString(val.String())
		return nil
	case string:
		return encodeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeDeterministic(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeDeterministic(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for deterministic JSON: %T", v)
	}
}

// encodeString writes a JSON string with NFC normalization and HTML
// escaping disabled.
func encodeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	out := tmp.Bytes()
	// json.Encoder appends a trailing newline.
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	buf.Write(out)
	return nil
}
