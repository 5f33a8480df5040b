package stream

import (
	"context"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
)

// Manager covers stream lifecycle. A stream's partitions (record store and
// handling ledger together) are created as a unit by Create and destroyed as
// a unit by Delete.
type Manager interface {
	// Name returns the stream name.
	Name() string

	// Create creates the stream's partitions. Behavior when the stream
	// already exists is governed by opts.ExistingStream; the default
	// (ExistingStreamThrow) fails with a conflict error.
	Create(ctx context.Context, opts CreateOptions) error

	// Delete removes the stream's partitions and everything in them.
	Delete(ctx context.Context, opts DeleteOptions) error
}

// RecordReader covers the query surface. Every operation honors
// opts.NotFound (defaulting to ReturnDefault) and the fuzzy-match fields of
// GetOptions.
type RecordReader interface {
	// GetLatestRecord returns the matching record with the highest
	// internal id, or nil when none matches and NotFound is ReturnDefault.
	GetLatestRecord(ctx context.Context, opts GetOptions) (*record.Record, error)

	// GetLatestRecordByID is GetLatestRecord narrowed to one
	// string-serialized id.
	GetLatestRecordByID(ctx context.Context, id string, opts GetOptions) (*record.Record, error)

	// GetAllRecordsByID returns every record matching the id, ordered per
	// opts.Order (default ascending by internal id).
	GetAllRecordsByID(ctx context.Context, id string, opts GetOptions) ([]record.Record, error)

	// GetAllRecordsMetadataByID is GetAllRecordsByID without payloads.
	GetAllRecordsMetadataByID(ctx context.Context, id string, opts GetOptions) ([]record.Metadata, error)

	// GetRecordByInternalID returns the record with the exact internal id.
	GetRecordByInternalID(ctx context.Context, internalID int64, opts GetOptions) (*record.Record, error)

	// DoesAnyExistByID reports whether any record matches the id.
	DoesAnyExistByID(ctx context.Context, id string, opts GetOptions) (bool, error)

	// GetDistinctStringSerializedIDs returns the distinct non-nil
	// string-serialized ids of records matching the filter fields of opts.
	GetDistinctStringSerializedIDs(ctx context.Context, opts GetOptions) ([]string, error)
}

// RecordWriter covers the mutation surface.
type RecordWriter interface {
	// Put writes a record, subject to the existing-record strategy and
	// retention pruning in opts. See PutOptions for the full algorithm.
	Put(ctx context.Context, metadata record.Metadata, payload record.Payload, opts PutOptions) (PutResult, error)

	// GetNextUniqueLong atomically issues the partition's next unique
	// long. Each issuance is recorded as an auditable event carrying the
	// caller-supplied details.
	GetNextUniqueLong(ctx context.Context, details string, opts UniqueLongOptions) (int64, error)

	// Prune removes every record satisfying the predicate, together with
	// every handling entry (any concern) whose record id and timestamp
	// also satisfy it. All-or-nothing per partition.
	Prune(ctx context.Context, opts PruneOptions) error
}

// RecordHandler covers the handling work-queue protocol.
type RecordHandler interface {
	// TryHandleRecord attempts to claim one record for the concern. The
	// claim appends a Running entry (preceded by an AvailableByDefault
	// baseline entry on the record's first appearance for the concern)
	// under the backend's exclusive section, so at most one concurrent
	// caller can claim a given record.
	TryHandleRecord(ctx context.Context, concern string, opts TryHandleOptions) (TryHandleResult, error)

	// UpdateHandlingStatusForRecord appends a status transition entry for
	// the record and concern, failing with a protocol error when the
	// current status does not permit the transition.
	UpdateHandlingStatusForRecord(ctx context.Context, internalRecordID int64, concern string, opts UpdateHandlingOptions) error

	// UpdateHandlingStatusForStream toggles the stream-wide gate between
	// DisabledForStream and AvailableByDefault. The toggle is strict: the
	// opposite status must currently be recorded.
	UpdateHandlingStatusForStream(ctx context.Context, newStatus record.HandlingStatus, opts UpdateStreamHandlingOptions) error

	// GetHandlingHistory returns every entry for the record and concern in
	// insertion order.
	GetHandlingHistory(ctx context.Context, concern string, internalRecordID int64, opts HandlingQueryOptions) ([]record.HandlingEntry, error)

	// GetHandlingStatusForRecords returns, per queried string-serialized
	// id, the current status of the latest record matching that id. When
	// the stream gate is down every queried id reports DisabledForStream.
	GetHandlingStatusForRecords(ctx context.Context, concern string, ids []string, opts HandlingStatusOptions) (map[string]record.HandlingStatus, error)

	// GetHandlingStatusForTags returns the current status of every record
	// matching the tags, keyed by internal record id.
	GetHandlingStatusForTags(ctx context.Context, concern string, tags []record.Tag, opts HandlingStatusOptions) (map[int64]record.HandlingStatus, error)
}

// Stream is the full backend contract.
type Stream interface {
	Manager
	RecordReader
	RecordWriter
	RecordHandler
}

// ResolveSingleLocator resolves the target partition for an operation: the
// explicit locator when supplied, otherwise the resolver's unique partition.
// More than one partition without an explicit locator is a validation error.
func ResolveSingleLocator(ctx context.Context, op string, resolver locator.Resolver, explicit locator.Locator) (locator.Locator, error) {
	if explicit != nil {
		return explicit, nil
	}
	all, err := resolver.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	switch len(all) {
	case 0:
		return nil, record.NewValidationError(op, "locator", "no locator supplied and resolver has no partitions")
	case 1:
		return all[0], nil
	default:
		return nil, record.NewValidationError(op, "locator", "no locator supplied and resolver has more than one partition")
	}
}
