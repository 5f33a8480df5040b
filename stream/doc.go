// Package stream defines the backend contract for strand streams.
//
// A Stream is an append-mostly record store scoped to one named stream,
// backed by one or more storage partitions addressed by locators. Three
// interchangeable backends implement the contract: memstream (in-process),
// filestream (directory layout on disk) and sqlitestream (SQLite). All
// backends must behave identically; the cross-backend suite in
// stream/streamtest pins that equivalence.
//
// The contract is purely synchronous. Operations take a context for
// call-boundary cancellation only: once a backend starts mutating a
// partition it runs to completion under its exclusive section, so a failed
// operation never leaves a partial record or ledger write behind.
package stream
