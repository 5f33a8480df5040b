package partition

import (
	"github.com/strandkit/strand/record"
)

// PutDecision is the outcome of resolving an existing-record strategy
// against a partition, before anything is written.
type PutDecision struct {
	// Write reports whether the new record should be appended.
	Write bool

	// ExistingIDs lists the internal ids the strategy's check matched.
	ExistingIDs []int64

	// PruneIDs lists the internal ids to remove after the append, oldest
	// first.
	PruneIDs []int64
}

// PayloadLoader fetches a record's payload by internal id. Backends that
// keep payloads out of the State (filestream loads them lazily) supply a
// real loader; memstream's loader reads straight from the State.
type PayloadLoader func(internalRecordID int64) (record.Payload, error)

// PlanPut resolves an existing-record strategy for a prospective new
// record. The candidate sets are computed only when the active strategy
// needs them: matchesByID for the ById variants, matchesByIDAndType for the
// ByIdAndType variants, with content narrowing loading payloads only for
// the records already matched by id and type.
func (s *State) PlanPut(
	op string,
	metadata record.Metadata,
	payload record.Payload,
	strategy record.ExistingRecordStrategy,
	retentionCount *int,
	versionMatch record.VersionMatchStrategy,
	loadPayload PayloadLoader,
) (PutDecision, error) {
	if !strategy.IsValid() {
		return PutDecision{}, record.NewUnsupportedValueError("ExistingRecordStrategy", strategy.String())
	}
	if strategy.RequiresRetentionCount() {
		if retentionCount == nil {
			return PutDecision{}, record.NewValidationError(op, "RetentionCount", "required by strategy "+strategy.String())
		}
		if *retentionCount < 1 {
			return PutDecision{}, record.NewValidationError(op, "RetentionCount", "must be at least 1")
		}
	} else if retentionCount != nil {
		return PutDecision{}, record.NewValidationError(op, "RetentionCount", "only allowed with strategy PruneIfFoundById or PruneIfFoundByIdAndType")
	}

	if strategy == record.ExistingRecordNone {
		return PutDecision{Write: true}, nil
	}

	filter := record.Filter{
		ID:           metadata.StringSerializedID,
		TypeOfID:     &metadata.TypeOfID,
		VersionMatch: versionMatch,
	}
	if strategy.MatchesOnType() {
		filter.TypeOfObject = &metadata.TypeOfObject
	}
	matched, err := s.Match(filter)
	if err != nil {
		return PutDecision{}, err
	}
	if strategy.MatchesOnContent() {
		matched, err = narrowToPayloadEqual(matched, payload, loadPayload)
		if err != nil {
			return PutDecision{}, err
		}
	}

	ids := internalIDs(matched)

	switch strategy {
	case record.ExistingRecordThrowIfFoundByID,
		record.ExistingRecordThrowIfFoundByIDAndType,
		record.ExistingRecordThrowIfFoundByIDAndTypeAndContent:
		if len(ids) > 0 {
			return PutDecision{}, record.NewConflictError(op,
				"existing record found with strategy "+strategy.String(), ids...)
		}
		return PutDecision{Write: true}, nil

	case record.ExistingRecordDoNotWriteIfFoundByID,
		record.ExistingRecordDoNotWriteIfFoundByIDAndType,
		record.ExistingRecordDoNotWriteIfFoundByIDAndTypeAndContent:
		if len(ids) > 0 {
			return PutDecision{Write: false, ExistingIDs: ids}, nil
		}
		return PutDecision{Write: true}, nil

	case record.ExistingRecordPruneIfFoundByID,
		record.ExistingRecordPruneIfFoundByIDAndType:
		decision := PutDecision{Write: true}
		// The record about to be written counts toward the retention
		// total, so only retentionCount-1 existing matches may survive;
		// everything older is pruned once the new record is in.
		if len(ids) >= *retentionCount {
			excess := ids[:len(ids)-(*retentionCount-1)]
			decision.ExistingIDs = excess
			decision.PruneIDs = excess
		}
		return decision, nil

	default:
		return PutDecision{}, record.NewUnsupportedValueError("ExistingRecordStrategy", strategy.String())
	}
}

func narrowToPayloadEqual(matched []record.Record, payload record.Payload, loadPayload PayloadLoader) ([]record.Record, error) {
	var out []record.Record
	for _, r := range matched {
		p := r.Payload
		if loadPayload != nil {
			loaded, err := loadPayload(r.InternalID)
			if err != nil {
				return nil, err
			}
			p = loaded
		}
		if p.Equal(payload) {
			out = append(out, r)
		}
	}
	return out, nil
}

func internalIDs(records []record.Record) []int64 {
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.InternalID
	}
	return ids
}
