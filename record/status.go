package record

import (
	"fmt"
	"strings"
)

// HandlingStatus is the closed set of states a record can be in for a given
// concern. The status of a record is derived from its most recent handling
// entry; a record with no entries is AvailableByDefault.
type HandlingStatus int

const (
	// StatusUnknown is the invalid zero value.
	StatusUnknown HandlingStatus = iota

	// StatusAvailableByDefault marks a record that has never been claimed
	// for the concern (or had handling explicitly re-enabled).
	StatusAvailableByDefault

	// StatusRunning marks a record currently claimed by a handler.
	StatusRunning

	// StatusCompleted marks a record whose handler finished successfully.
	StatusCompleted

	// StatusFailed marks a record whose handler reported failure.
	StatusFailed

	// StatusAvailableAfterFailure marks a failed record explicitly retried.
	StatusAvailableAfterFailure

	// StatusArchivedAfterFailure marks a failed record permanently removed
	// from consideration without deleting its history.
	StatusArchivedAfterFailure

	// StatusAvailableAfterSelfCancellation marks a record whose handler
	// voluntarily yielded.
	StatusAvailableAfterSelfCancellation

	// StatusAvailableAfterExternalCancellation marks a record whose
	// in-flight handler was cancelled externally.
	StatusAvailableAfterExternalCancellation

	// StatusDisabledForRecord marks a record blocked by an operator.
	StatusDisabledForRecord

	// StatusDisabledForStream marks the whole stream as blocked. Recorded
	// only under the stream-disabled concern against the global sentinel
	// record id.
	StatusDisabledForStream
)

var statusNames = map[HandlingStatus]string{
	StatusAvailableByDefault:                 "AvailableByDefault",
	StatusRunning:                            "Running",
	StatusCompleted:                          "Completed",
	StatusFailed:                             "Failed",
	StatusAvailableAfterFailure:              "AvailableAfterFailure",
	StatusArchivedAfterFailure:               "ArchivedAfterFailure",
	StatusAvailableAfterSelfCancellation:     "AvailableAfterSelfCancellation",
	StatusAvailableAfterExternalCancellation: "AvailableAfterExternalCancellation",
	StatusDisabledForRecord:                  "DisabledForRecord",
	StatusDisabledForStream:                  "DisabledForStream",
}

// String implements fmt.Stringer. The rendered names are part of the file
// backend's on-disk format and must not change.
func (s HandlingStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// ParseHandlingStatus converts a status name (case-insensitive) back to its
// enum value. The inverse of String for all valid statuses.
func ParseHandlingStatus(s string) (HandlingStatus, error) {
	for status, name := range statusNames {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return StatusUnknown, NewUnsupportedValueError("HandlingStatus", s)
}

// IsValid reports whether the status is one of the closed set.
func (s HandlingStatus) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsAvailable reports whether a record in this status is eligible to be
// claimed by TryHandleRecord.
func (s HandlingStatus) IsAvailable() bool {
	switch s {
	case StatusAvailableByDefault,
		StatusAvailableAfterFailure,
		StatusAvailableAfterSelfCancellation,
		StatusAvailableAfterExternalCancellation:
		return true
	default:
		return false
	}
}
