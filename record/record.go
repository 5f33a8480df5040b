package record

import (
	"strings"
	"time"
)

// Record is one immutable entry in a stream partition.
type Record struct {
	// InternalID is unique within the partition and strictly increasing in
	// write order unless explicitly supplied by the caller.
	InternalID int64 `json:"internalRecordId" yaml:"internalRecordId"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Payload  Payload  `json:"payload" yaml:"payload"`
}

// Validate checks the record's metadata and payload invariants.
func (r Record) Validate() error {
	if r.InternalID < 0 {
		return NewValidationError("Record", "InternalID", "must not be negative")
	}
	if err := r.Metadata.Validate(); err != nil {
		return err
	}
	return r.Payload.Validate()
}

// HandlingEntry is one immutable entry in a partition's handling ledger for
// a concern. Entries are append-only; the current status of a record for a
// concern is the status of its entry with the highest InternalEntryID.
type HandlingEntry struct {
	// InternalEntryID is unique within the partition across all concerns
	// and strictly increasing in append order.
	InternalEntryID int64 `json:"internalHandlingEntryId" yaml:"internalHandlingEntryId"`

	// InternalRecordID is the record the entry applies to, or
	// GlobalBlockingRecordID for stream-wide entries.
	InternalRecordID int64 `json:"internalRecordId" yaml:"internalRecordId"`

	Concern string         `json:"concern" yaml:"concern"`
	Status  HandlingStatus `json:"status" yaml:"status"`
	Tags    []Tag          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Details string         `json:"details,omitempty" yaml:"details,omitempty"`

	TimestampUTC time.Time `json:"timestampUtc" yaml:"timestampUtc"`
}

// Validate checks the entry's construction invariants.
func (e HandlingEntry) Validate() error {
	const op = "HandlingEntry"
	if err := ValidateConcern(e.Concern); err != nil {
		return err
	}
	if !e.Status.IsValid() {
		return NewUnsupportedValueError("HandlingStatus", e.Status.String())
	}
	if e.TimestampUTC.IsZero() {
		return NewValidationError(op, "TimestampUTC", "must be set")
	}
	if e.TimestampUTC.Location() != time.UTC {
		return NewValidationError(op, "TimestampUTC", "must be UTC")
	}
	return ValidateTags(op, e.Tags)
}

// ValidateConcern checks that a concern name is non-empty and not
// whitespace-only.
func ValidateConcern(concern string) error {
	if strings.TrimSpace(concern) == "" {
		return NewValidationError("Concern", "concern", "must not be empty or whitespace")
	}
	return nil
}
