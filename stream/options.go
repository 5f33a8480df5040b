package stream

import (
	"fmt"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
)

// ExistingStreamStrategy controls Create against an already-created stream.
type ExistingStreamStrategy int

const (
	// ExistingStreamThrow fails creation with a conflict error. Default.
	ExistingStreamThrow ExistingStreamStrategy = iota

	// ExistingStreamSkip leaves the existing stream untouched.
	ExistingStreamSkip

	// ExistingStreamOverwrite clears the existing stream's partitions,
	// records, ledgers and counters, as if freshly created.
	ExistingStreamOverwrite
)

// String implements fmt.Stringer.
func (s ExistingStreamStrategy) String() string {
	switch s {
	case ExistingStreamThrow:
		return "Throw"
	case ExistingStreamSkip:
		return "Skip"
	case ExistingStreamOverwrite:
		return "Overwrite"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// CreateOptions parameterizes Manager.Create.
type CreateOptions struct {
	ExistingStream ExistingStreamStrategy
}

// DeleteOptions parameterizes Manager.Delete.
type DeleteOptions struct {
	// SkipIfNotFound makes Delete a no-op when the stream does not exist;
	// otherwise deleting a non-existent stream is a not-found error.
	SkipIfNotFound bool
}

// PutOptions parameterizes RecordWriter.Put.
//
// The zero value means: no existing-record check, version-insensitive type
// matching, auto-generated internal id, resolver-determined partition.
type PutOptions struct {
	// ExistingRecord selects the existing-record resolution strategy.
	// Zero is treated as ExistingRecordNone.
	ExistingRecord record.ExistingRecordStrategy

	// RetentionCount is how many most-recent matching records to keep for
	// the PruneIfFound* strategies, which require it to be non-nil.
	RetentionCount *int

	// VersionMatch governs type comparisons during the existing-record
	// check. Zero is treated as VersionMatchAny.
	VersionMatch record.VersionMatchStrategy

	// InternalID supplies the new record's internal id explicitly. The Put
	// fails with a conflict error when the id already exists, and raises
	// the partition's id high-water mark otherwise.
	InternalID *int64

	// Locator targets a specific partition. Nil resolves via the backend's
	// resolver, which must then hold exactly one partition.
	Locator locator.Locator
}

// PutResult reports the outcome of a Put.
type PutResult struct {
	// InternalID is the written record's id, nil when a DoNotWrite
	// strategy suppressed the write.
	InternalID *int64

	// ExistingInternalIDs lists the ids the existing-record check matched.
	ExistingInternalIDs []int64

	// PrunedInternalIDs lists the ids removed by retention pruning.
	PrunedInternalIDs []int64
}

// Validate enforces the construction invariant: a PutResult must carry a
// written id or at least one existing id. Both absent indicates a backend
// defect.
func (r PutResult) Validate() error {
	if r.InternalID == nil && len(r.ExistingInternalIDs) == 0 {
		return record.NewValidationError("PutResult", "InternalID", "must be set when no existing ids were matched")
	}
	return nil
}

// GetOptions parameterizes the RecordReader operations. All filter fields
// compose; unset fields are wildcards.
type GetOptions struct {
	// NotFound selects the empty-result behavior. Zero is treated as
	// NotFoundReturnDefault.
	NotFound record.RecordNotFoundStrategy

	// TypeOfID and TypeOfObject narrow matches by type under VersionMatch.
	TypeOfID     *record.TypeRepresentationPair
	TypeOfObject *record.TypeRepresentationPair

	// VersionMatch governs type comparisons. Zero is treated as
	// VersionMatchAny.
	VersionMatch record.VersionMatchStrategy

	// Tags narrows matches by tag under TagMatch (default: record must
	// contain all query tags).
	Tags     []record.Tag
	TagMatch record.TagMatchStrategy

	// Order applies to multi-record results. Zero is treated as
	// OrderInternalRecordIDAscending.
	Order record.OrderRecordsBy

	// Locator targets a specific partition; nil resolves via the
	// backend's resolver.
	Locator locator.Locator
}

// Filter converts the option's filter fields into a record.Filter, with an
// optional string-serialized id.
func (o GetOptions) Filter(id *string) record.Filter {
	return record.Filter{
		ID:           id,
		TypeOfID:     o.TypeOfID,
		TypeOfObject: o.TypeOfObject,
		VersionMatch: o.VersionMatch,
		Tags:         o.Tags,
		TagMatch:     o.TagMatch,
	}
}

// NotFoundStrategy returns the effective not-found strategy.
func (o GetOptions) NotFoundStrategy() record.RecordNotFoundStrategy {
	if o.NotFound == record.NotFoundUnknown {
		return record.NotFoundReturnDefault
	}
	return o.NotFound
}

// EffectiveOrder returns the effective result order.
func (o GetOptions) EffectiveOrder() record.OrderRecordsBy {
	if o.Order == record.OrderUnknown {
		return record.OrderInternalRecordIDAscending
	}
	return o.Order
}

// UniqueLongOptions parameterizes GetNextUniqueLong.
type UniqueLongOptions struct {
	Locator locator.Locator
}

// TryHandleOptions parameterizes RecordHandler.TryHandleRecord.
type TryHandleOptions struct {
	// Locator targets one partition. Nil tries every partition the
	// resolver enumerates, in order, until one yields a record.
	Locator locator.Locator

	// TypeOfID, TypeOfObject, VersionMatch, Tags and TagMatch narrow the
	// eligible record set the same way GetOptions filters reads.
	TypeOfID     *record.TypeRepresentationPair
	TypeOfObject *record.TypeRepresentationPair
	VersionMatch record.VersionMatchStrategy
	Tags         []record.Tag
	TagMatch     record.TagMatchStrategy

	// Order selects among eligible records. Zero is treated as
	// OrderInternalRecordIDAscending; OrderRandom draws uniformly.
	Order record.OrderRecordsBy

	// MinimumInternalRecordID excludes records with lower ids.
	MinimumInternalRecordID *int64

	// InheritRecordTags copies the claimed record's tags onto the Running
	// entry, in addition to Tags below.
	InheritRecordTags bool

	// Tags are written onto the Running entry.
	EntryTags []record.Tag

	// Details is written onto the Running entry.
	Details string

	// MetadataOnly returns the claimed record without its payload.
	MetadataOnly bool
}

// EffectiveOrder returns the effective selection order.
func (o TryHandleOptions) EffectiveOrder() record.OrderRecordsBy {
	if o.Order == record.OrderUnknown {
		return record.OrderInternalRecordIDAscending
	}
	return o.Order
}

// Filter converts the option's filter fields into a record.Filter.
func (o TryHandleOptions) Filter() record.Filter {
	return record.Filter{
		TypeOfID:     o.TypeOfID,
		TypeOfObject: o.TypeOfObject,
		VersionMatch: o.VersionMatch,
		Tags:         o.Tags,
		TagMatch:     o.TagMatch,
	}
}

// TryHandleResult reports the outcome of a TryHandleRecord attempt.
type TryHandleResult struct {
	// Record is the claimed record, nil when nothing was claimed.
	Record *record.Record

	// Blocked reports that the stream gate is down. A blocked attempt
	// never claims a record.
	Blocked bool
}

// UpdateHandlingOptions parameterizes UpdateHandlingStatusForRecord.
type UpdateHandlingOptions struct {
	// NewStatus is the requested transition target.
	NewStatus record.HandlingStatus

	// AcceptableCurrentStatuses, when non-empty, further restricts which
	// current statuses the caller will transition from. The protocol's own
	// transition table is always enforced regardless.
	AcceptableCurrentStatuses []record.HandlingStatus

	Details string
	Tags    []record.Tag

	Locator locator.Locator
}

// UpdateStreamHandlingOptions parameterizes UpdateHandlingStatusForStream.
type UpdateStreamHandlingOptions struct {
	Details string
	Locator locator.Locator
}

// HandlingQueryOptions parameterizes GetHandlingHistory.
type HandlingQueryOptions struct {
	Locator locator.Locator
}

// HandlingStatusOptions parameterizes the handling status queries.
type HandlingStatusOptions struct {
	Locator locator.Locator

	// VersionMatch and TypeOfID narrow which records a queried id matches.
	VersionMatch record.VersionMatchStrategy
	TypeOfID     *record.TypeRepresentationPair

	// TagMatch governs GetHandlingStatusForTags composition: all query
	// tags required (default) or any.
	TagMatch record.TagMatchStrategy
}
