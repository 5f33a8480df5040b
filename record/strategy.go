package record

import (
	"fmt"
	"strings"
)

// ExistingRecordStrategy controls what Put does when records matching the
// new record's id (and optionally type and content) already exist in the
// target partition.
type ExistingRecordStrategy int

const (
	// ExistingRecordNone performs no existing-record check.
	ExistingRecordNone ExistingRecordStrategy = iota + 1

	// ExistingRecordThrowIfFoundByID fails the Put when any record with a
	// matching id exists.
	ExistingRecordThrowIfFoundByID

	// ExistingRecordThrowIfFoundByIDAndType fails the Put when any record
	// with a matching id and object type exists.
	ExistingRecordThrowIfFoundByIDAndType

	// ExistingRecordThrowIfFoundByIDAndTypeAndContent fails the Put when a
	// record with matching id, object type and payload exists.
	ExistingRecordThrowIfFoundByIDAndTypeAndContent

	// ExistingRecordDoNotWriteIfFoundByID skips the write and reports the
	// matching ids when any record with a matching id exists.
	ExistingRecordDoNotWriteIfFoundByID

	// ExistingRecordDoNotWriteIfFoundByIDAndType skips the write when any
	// record with a matching id and object type exists.
	ExistingRecordDoNotWriteIfFoundByIDAndType

	// ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent skips the write
	// when a record with matching id, object type and payload exists.
	ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent

	// ExistingRecordPruneIfFoundByID writes the new record and then removes
	// the oldest matching records beyond the retention count.
	ExistingRecordPruneIfFoundByID

	// ExistingRecordPruneIfFoundByIDAndType is PruneIfFoundByID narrowed to
	// records that also match the object type.
	ExistingRecordPruneIfFoundByIDAndType
)

var existingRecordStrategyNames = map[ExistingRecordStrategy]string{
	ExistingRecordNone:                                   "None",
	ExistingRecordThrowIfFoundByID:                       "ThrowIfFoundById",
	ExistingRecordThrowIfFoundByIDAndType:                "ThrowIfFoundByIdAndType",
	ExistingRecordThrowIfFoundByIDAndTypeAndContent:      "ThrowIfFoundByIdAndTypeAndContent",
	ExistingRecordDoNotWriteIfFoundByID:                  "DoNotWriteIfFoundById",
	ExistingRecordDoNotWriteIfFoundByIDAndType:           "DoNotWriteIfFoundByIdAndType",
	ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent: "DoNotWriteIfFoundByIdAndTypeAndContent",
	ExistingRecordPruneIfFoundByID:                       "PruneIfFoundById",
	ExistingRecordPruneIfFoundByIDAndType:                "PruneIfFoundByIdAndType",
}

// String implements fmt.Stringer.
func (s ExistingRecordStrategy) String() string {
	if name, ok := existingRecordStrategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// IsValid reports whether the strategy is one of the closed set.
func (s ExistingRecordStrategy) IsValid() bool {
	_, ok := existingRecordStrategyNames[s]
	return ok
}

// RequiresRetentionCount reports whether the strategy needs a retention
// count to be supplied alongside it.
func (s ExistingRecordStrategy) RequiresRetentionCount() bool {
	return s == ExistingRecordPruneIfFoundByID || s == ExistingRecordPruneIfFoundByIDAndType
}

// MatchesOnType reports whether the strategy's existing-record check
// considers the object type in addition to the id.
func (s ExistingRecordStrategy) MatchesOnType() bool {
	switch s {
	case ExistingRecordThrowIfFoundByIDAndType,
		ExistingRecordThrowIfFoundByIDAndTypeAndContent,
		ExistingRecordDoNotWriteIfFoundByIDAndType,
		ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent,
		ExistingRecordPruneIfFoundByIDAndType:
		return true
	default:
		return false
	}
}

// MatchesOnContent reports whether the strategy's check further narrows
// matches to payload-equal records.
func (s ExistingRecordStrategy) MatchesOnContent() bool {
	return s == ExistingRecordThrowIfFoundByIDAndTypeAndContent ||
		s == ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent
}

// TagMatchStrategy governs how a query's tag set is compared against a
// record's tag set.
type TagMatchStrategy int

const (
	// TagMatchUnknown is the invalid zero value.
	TagMatchUnknown TagMatchStrategy = iota

	// TagMatchRecordContainsAllQueryTags requires the record's tag set to
	// be a superset of the query's tag set. The default for all queries.
	TagMatchRecordContainsAllQueryTags

	// TagMatchRecordContainsAnyQueryTag requires at least one query tag to
	// be present on the record.
	TagMatchRecordContainsAnyQueryTag
)

// String implements fmt.Stringer.
func (s TagMatchStrategy) String() string {
	switch s {
	case TagMatchRecordContainsAllQueryTags:
		return "RecordContainsAllQueryTags"
	case TagMatchRecordContainsAnyQueryTag:
		return "RecordContainsAnyQueryTag"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// OrderRecordsBy selects which record a multi-record operation acts on (or
// returns) when more than one qualifies.
type OrderRecordsBy int

const (
	// OrderUnknown is the invalid zero value.
	OrderUnknown OrderRecordsBy = iota

	// OrderInternalRecordIDAscending prefers the oldest record.
	OrderInternalRecordIDAscending

	// OrderInternalRecordIDDescending prefers the newest record.
	OrderInternalRecordIDDescending

	// OrderRandom selects uniformly at random among qualifying records.
	// Used to spread handling load across competing consumers, not to
	// shuffle query results.
	OrderRandom
)

// String implements fmt.Stringer.
func (o OrderRecordsBy) String() string {
	switch o {
	case OrderInternalRecordIDAscending:
		return "InternalRecordIdAscending"
	case OrderInternalRecordIDDescending:
		return "InternalRecordIdDescending"
	case OrderRandom:
		return "Random"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// ParseOrderRecordsBy converts a string to its enum value.
func ParseOrderRecordsBy(s string) (OrderRecordsBy, error) {
	switch strings.ToLower(s) {
	case "internalrecordidascending", "ascending":
		return OrderInternalRecordIDAscending, nil
	case "internalrecordiddescending", "descending":
		return OrderInternalRecordIDDescending, nil
	case "random":
		return OrderRandom, nil
	default:
		return OrderUnknown, NewUnsupportedValueError("OrderRecordsBy", s)
	}
}

// RecordNotFoundStrategy controls whether a read operation that finds no
// matching record returns a typed default or fails.
type RecordNotFoundStrategy int

const (
	// NotFoundUnknown is the invalid zero value.
	NotFoundUnknown RecordNotFoundStrategy = iota

	// NotFoundReturnDefault returns nil / an empty result.
	NotFoundReturnDefault

	// NotFoundThrow raises a not-found error.
	NotFoundThrow
)

// String implements fmt.Stringer.
func (s RecordNotFoundStrategy) String() string {
	switch s {
	case NotFoundReturnDefault:
		return "ReturnDefault"
	case NotFoundThrow:
		return "Throw"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}
