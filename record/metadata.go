package record

import (
	"strings"
	"time"
)

// Tag is a named value attached to a record or handling entry. Tag order is
// preserved as supplied; matching ignores order.
type Tag struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ValidateTags checks that every tag has a non-whitespace name.
func ValidateTags(op string, tags []Tag) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag.Name) == "" {
			return NewValidationError(op, "tags", "tag name must not be empty or whitespace")
		}
	}
	return nil
}

// ContainsTag reports whether the set contains an exact name/value match.
func ContainsTag(tags []Tag, want Tag) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

// TagsMatch compares a record's tags against query tags under the given
// strategy. An empty query tag set matches everything.
func TagsMatch(recordTags, queryTags []Tag, strategy TagMatchStrategy) (bool, error) {
	if len(queryTags) == 0 {
		return true, nil
	}
	switch strategy {
	case TagMatchRecordContainsAllQueryTags:
		for _, want := range queryTags {
			if !ContainsTag(recordTags, want) {
				return false, nil
			}
		}
		return true, nil
	case TagMatchRecordContainsAnyQueryTag:
		for _, want := range queryTags {
			if ContainsTag(recordTags, want) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, NewUnsupportedValueError("TagMatchStrategy", strategy.String())
	}
}

// Metadata describes a record without its payload: the caller-supplied
// string-serialized object id (nil when the object has no id), descriptors
// for the serializer and the id/object types, tags, and timestamps.
//
// Both timestamps must be UTC; Validate rejects anything else before a
// record is written.
type Metadata struct {
	// StringSerializedID is the serialized object id, nil when absent.
	StringSerializedID *string `json:"stringSerializedId" yaml:"stringSerializedId"`

	Serializer   SerializerRepresentation `json:"serializer" yaml:"serializer"`
	TypeOfID     TypeRepresentationPair   `json:"typeOfId" yaml:"typeOfId"`
	TypeOfObject TypeRepresentationPair   `json:"typeOfObject" yaml:"typeOfObject"`

	Tags []Tag `json:"tags,omitempty" yaml:"tags,omitempty"`

	// TimestampUTC is when the record was written.
	TimestampUTC time.Time `json:"timestampUtc" yaml:"timestampUtc"`

	// ObjectTimestampUTC is the domain timestamp of the object itself,
	// when the object carries one.
	ObjectTimestampUTC *time.Time `json:"objectTimestampUtc,omitempty" yaml:"objectTimestampUtc,omitempty"`
}

// Validate checks the construction invariants from the data model: UTC
// timestamps, valid serializer and type descriptors, well-formed tags.
func (m Metadata) Validate() error {
	const op = "Metadata"
	if m.TimestampUTC.IsZero() {
		return NewValidationError(op, "TimestampUTC", "must be set")
	}
	if m.TimestampUTC.Location() != time.UTC {
		return NewValidationError(op, "TimestampUTC", "must be UTC")
	}
	if m.ObjectTimestampUTC != nil && m.ObjectTimestampUTC.Location() != time.UTC {
		return NewValidationError(op, "ObjectTimestampUTC", "must be UTC")
	}
	if err := m.Serializer.Validate(); err != nil {
		return err
	}
	if err := m.TypeOfID.Validate(); err != nil {
		return err
	}
	if err := m.TypeOfObject.Validate(); err != nil {
		return err
	}
	return ValidateTags(op, m.Tags)
}

// IDEqual reports whether the metadata's string-serialized id equals the
// given one, treating two nils as equal.
func (m Metadata) IDEqual(other *string) bool {
	if m.StringSerializedID == nil || other == nil {
		return m.StringSerializedID == nil && other == nil
	}
	return *m.StringSerializedID == *other
}
