package stream

import (
	"time"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
)

// PrunePredicate decides whether a record (or handling entry) identified by
// internal record id and timestamp should be removed. Predicates must be
// pure: backends may evaluate them any number of times.
type PrunePredicate func(internalRecordID int64, timestampUTC time.Time) bool

// PruneBeforeInternalRecordID removes everything with an internal record id
// at or below the threshold; records with higher ids are kept.
func PruneBeforeInternalRecordID(threshold int64) PrunePredicate {
	return func(internalRecordID int64, _ time.Time) bool {
		return internalRecordID <= threshold
	}
}

// PruneBeforeTimestamp removes everything with a timestamp at or before the
// cutoff, which must be UTC.
func PruneBeforeTimestamp(cutoff time.Time) (PrunePredicate, error) {
	if cutoff.Location() != time.UTC {
		return nil, record.NewValidationError("PruneBeforeTimestamp", "cutoff", "must be UTC")
	}
	return func(_ int64, timestampUTC time.Time) bool {
		return !timestampUTC.After(cutoff)
	}, nil
}

// PruneOptions parameterizes RecordWriter.Prune.
type PruneOptions struct {
	// Predicate selects what to remove. Required.
	Predicate PrunePredicate

	// Details describes why the prune ran; backends may log it.
	Details string

	// Locator targets one partition; nil resolves via the backend's
	// resolver. Pruning never cascades across partitions.
	Locator locator.Locator
}

// Validate checks the options.
func (o PruneOptions) Validate() error {
	if o.Predicate == nil {
		return record.NewValidationError("Prune", "Predicate", "must be set")
	}
	return nil
}
