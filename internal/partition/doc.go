// Package partition implements the pure partition model shared by every
// strand backend.
//
// A State is an in-memory view of one partition: its records in ascending
// internal-id order and its handling ledgers keyed by concern. memstream
// owns a mutable State per partition; filestream and sqlitestream
// reconstruct one from disk or SQL rows at the start of each operation. All
// decision logic — existing-record strategy resolution, the stream and
// record handling gates, eligibility scans, record selection and prune
// planning — lives here as functions over State, so the three backends
// cannot drift apart semantically.
//
// Functions in this package never perform I/O and never retain references
// into a State across calls; callers hold whatever lock protects the
// underlying storage for the duration of the call.
package partition
