package partition

import (
	"math/rand"

	"github.com/strandkit/strand/record"
)

// ClaimPlan is the outcome of a TryHandleRecord eligibility scan against
// one partition.
type ClaimPlan struct {
	// Blocked reports that the stream-wide gate is down; no record is
	// selected and other partitions need not be tried.
	Blocked bool

	// Record is the selected record, nil when nothing is eligible.
	Record *record.Record

	// NeedsBaseline reports that the record has no prior entry for the
	// concern at all, so an AvailableByDefault entry must be appended
	// before the Running entry to establish the queue's baseline history.
	NeedsBaseline bool
}

// PlanClaim runs the gate and eligibility logic of TryHandleRecord against
// this partition. Callers must hold their exclusive section across PlanClaim
// and the subsequent entry appends; that atomicity is what makes the claim
// safe against concurrent callers.
func (s *State) PlanClaim(
	concern string,
	f record.Filter,
	minimumInternalRecordID *int64,
	order record.OrderRecordsBy,
	rng *rand.Rand,
) (ClaimPlan, error) {
	if s.StreamDisabled() {
		return ClaimPlan{Blocked: true}, nil
	}

	eligible, err := s.EligibleRecords(concern, f, minimumInternalRecordID)
	if err != nil {
		return ClaimPlan{}, err
	}
	selected, err := SelectRecord(eligible, order, rng)
	if err != nil {
		return ClaimPlan{}, err
	}
	if selected == nil {
		return ClaimPlan{}, nil
	}
	return ClaimPlan{
		Record:        selected,
		NeedsBaseline: !s.HasAnyEntry(concern, selected.InternalID),
	}, nil
}
