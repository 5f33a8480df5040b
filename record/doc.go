// Package record defines the data model for strand streams.
//
// A stream is an append-mostly, ordered collection of records per storage
// partition. Each Record carries an internal id (strictly increasing in
// write order within its partition), descriptive Metadata, and an opaque
// serialized Payload. Records are immutable once written; they are removed
// only by pruning.
//
// Alongside records, the package models the handling ledger: per partition
// and per concern (a named work queue), an append-only sequence of
// HandlingEntry values records every attempt to process a record. The
// current handling status of a record for a concern is the status of the
// entry with the highest entry id; a record with no entries at all is
// AvailableByDefault.
//
// All lookup behavior is governed by small closed enums
// (ExistingRecordStrategy, VersionMatchStrategy, TagMatchStrategy,
// OrderRecordsBy, RecordNotFoundStrategy). Enum values outside their closed
// set are always surfaced as errors, never silently ignored.
package record
