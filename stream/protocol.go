package stream

import (
	"github.com/strandkit/strand/record"
)

// transitionTable maps each permitted transition target to the current
// statuses it may be reached from. Targets absent from the table can never
// be requested through UpdateHandlingStatusForRecord.
var transitionTable = map[record.HandlingStatus][]record.HandlingStatus{
	record.StatusCompleted:                          {record.StatusRunning},
	record.StatusFailed:                             {record.StatusRunning},
	record.StatusAvailableAfterExternalCancellation: {record.StatusRunning},
	record.StatusAvailableAfterSelfCancellation:     {record.StatusRunning},
	record.StatusAvailableAfterFailure:              {record.StatusFailed},
	record.StatusArchivedAfterFailure:               {record.StatusFailed},
	record.StatusDisabledForRecord:                  {record.StatusRunning, record.StatusFailed},
}

// ValidateRecordTransition checks a requested per-record status transition
// against the protocol table and, when supplied, the caller's acceptable
// current statuses. Returns a ProtocolError when the transition is not
// permitted.
func ValidateRecordTransition(op, concern string, internalRecordID int64, current, requested record.HandlingStatus, acceptable []record.HandlingStatus) error {
	allowed, ok := transitionTable[requested]
	if !ok {
		return &record.ProtocolError{
			Op:               op,
			Concern:          concern,
			InternalRecordID: internalRecordID,
			Current:          current,
			Requested:        requested,
			Reason:           "status is not a permitted transition target",
		}
	}
	if !containsStatus(allowed, current) {
		return &record.ProtocolError{
			Op:               op,
			Concern:          concern,
			InternalRecordID: internalRecordID,
			Current:          current,
			Requested:        requested,
			Reason:           "current status does not permit the transition",
		}
	}
	if len(acceptable) > 0 && !containsStatus(acceptable, current) {
		return &record.ProtocolError{
			Op:               op,
			Concern:          concern,
			InternalRecordID: internalRecordID,
			Current:          current,
			Requested:        requested,
			Reason:           "current status is not among the acceptable current statuses",
		}
	}
	return nil
}

// ValidateStreamTransition checks the stream gate's strict toggle
// discipline: disabling requires the gate to be up, enabling requires it to
// be down.
func ValidateStreamTransition(op string, current, requested record.HandlingStatus) error {
	switch requested {
	case record.StatusDisabledForStream:
		if current == record.StatusDisabledForStream {
			return &record.ProtocolError{
				Op:        op,
				Current:   current,
				Requested: requested,
				Reason:    "stream handling is already disabled",
			}
		}
		return nil
	case record.StatusAvailableByDefault:
		if current != record.StatusDisabledForStream {
			return &record.ProtocolError{
				Op:        op,
				Current:   current,
				Requested: requested,
				Reason:    "stream handling is not disabled",
			}
		}
		return nil
	default:
		return record.NewUnsupportedValueError("stream handling status", requested.String())
	}
}

func containsStatus(statuses []record.HandlingStatus, want record.HandlingStatus) bool {
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}
