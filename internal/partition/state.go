package partition

import (
	"sort"
	"time"

	"github.com/strandkit/strand/record"
)

// State is the in-memory view of one partition.
type State struct {
	// Records holds the partition's records in ascending internal-id
	// order.
	Records []record.Record

	// Ledgers holds the handling entries per concern, each slice in
	// ascending entry-id order.
	Ledgers map[string][]record.HandlingEntry
}

// NewState creates an empty partition.
func NewState() *State {
	return &State{Ledgers: make(map[string][]record.HandlingEntry)}
}

// AppendRecord inserts a record, keeping ascending internal-id order.
// Explicit-id puts can land below the current maximum, so insertion is by
// position, not blind append.
func (s *State) AppendRecord(r record.Record) {
	i := sort.Search(len(s.Records), func(i int) bool {
		return s.Records[i].InternalID >= r.InternalID
	})
	s.Records = append(s.Records, record.Record{})
	copy(s.Records[i+1:], s.Records[i:])
	s.Records[i] = r
}

// AppendEntry appends a handling entry to its concern's ledger.
func (s *State) AppendEntry(e record.HandlingEntry) {
	if s.Ledgers == nil {
		s.Ledgers = make(map[string][]record.HandlingEntry)
	}
	s.Ledgers[e.Concern] = append(s.Ledgers[e.Concern], e)
}

// RecordByInternalID returns the record with the exact internal id, or nil.
func (s *State) RecordByInternalID(id int64) *record.Record {
	i := sort.Search(len(s.Records), func(i int) bool {
		return s.Records[i].InternalID >= id
	})
	if i < len(s.Records) && s.Records[i].InternalID == id {
		r := s.Records[i]
		return &r
	}
	return nil
}

// HasRecord reports whether a record with the internal id exists.
func (s *State) HasRecord(id int64) bool {
	return s.RecordByInternalID(id) != nil
}

// MaxRecordID returns the highest internal record id, or 0 when empty.
func (s *State) MaxRecordID() int64 {
	if len(s.Records) == 0 {
		return 0
	}
	return s.Records[len(s.Records)-1].InternalID
}

// MaxEntryID returns the highest handling entry id across all concerns, or
// 0 when no entries exist.
func (s *State) MaxEntryID() int64 {
	var max int64
	for _, entries := range s.Ledgers {
		if n := len(entries); n > 0 && entries[n-1].InternalEntryID > max {
			max = entries[n-1].InternalEntryID
		}
	}
	return max
}

// EntriesForRecord returns the entries for one concern and record id in
// insertion order.
func (s *State) EntriesForRecord(concern string, internalRecordID int64) []record.HandlingEntry {
	var out []record.HandlingEntry
	for _, e := range s.Ledgers[concern] {
		if e.InternalRecordID == internalRecordID {
			out = append(out, e)
		}
	}
	return out
}

// HasAnyEntry reports whether any entry exists for the concern and record,
// regardless of status. TryHandleRecord uses this to decide whether a
// baseline AvailableByDefault entry must be appended before the claim.
func (s *State) HasAnyEntry(concern string, internalRecordID int64) bool {
	for _, e := range s.Ledgers[concern] {
		if e.InternalRecordID == internalRecordID {
			return true
		}
	}
	return false
}

// CurrentStatus derives the status of a record for one concern from that
// concern's ledger alone: the status of the entry with the highest entry
// id, or AvailableByDefault when no entry exists.
func (s *State) CurrentStatus(concern string, internalRecordID int64) record.HandlingStatus {
	status := record.StatusAvailableByDefault
	var bestID int64 = -1
	for _, e := range s.Ledgers[concern] {
		if e.InternalRecordID == internalRecordID && e.InternalEntryID > bestID {
			bestID = e.InternalEntryID
			status = e.Status
		}
	}
	return status
}

// CurrentRecordStatus derives the effective status of a record for a user
// concern, merging the concern's entries with the per-record disable
// concern's entries. The most recent entry across both wins, so a
// DisabledForRecord entry blocks the record until a later entry under
// either concern supersedes it.
func (s *State) CurrentRecordStatus(concern string, internalRecordID int64) record.HandlingStatus {
	status := record.StatusAvailableByDefault
	var bestID int64 = -1
	for _, c := range []string{concern, record.RecordHandlingDisabledConcern} {
		for _, e := range s.Ledgers[c] {
			if e.InternalRecordID == internalRecordID && e.InternalEntryID > bestID {
				bestID = e.InternalEntryID
				status = e.Status
			}
		}
	}
	return status
}

// StreamDisabled reports whether the stream-wide gate is down: the most
// recent entry under the stream-disabled concern against the global
// sentinel record id has status DisabledForStream.
func (s *State) StreamDisabled() bool {
	return s.CurrentStatus(record.StreamHandlingDisabledConcern, record.GlobalBlockingRecordID) ==
		record.StatusDisabledForStream
}

// RemoveRecords removes the given records and every handling entry, across
// all concerns, for those record ids. Stream-wide sentinel entries are
// never touched.
func (s *State) RemoveRecords(ids []int64) {
	if len(ids) == 0 {
		return
	}
	doomed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	kept := s.Records[:0]
	for _, r := range s.Records {
		if !doomed[r.InternalID] {
			kept = append(kept, r)
		}
	}
	s.Records = kept

	for concern, entries := range s.Ledgers {
		keptEntries := entries[:0]
		for _, e := range entries {
			if !doomed[e.InternalRecordID] {
				keptEntries = append(keptEntries, e)
			}
		}
		s.Ledgers[concern] = keptEntries
	}
}

// PlanPrune returns the internal ids of records satisfying the predicate
// and, separately, the entry ids of handling entries (any concern) whose
// record id and own timestamp satisfy it.
func (s *State) PlanPrune(pred func(internalRecordID int64, timestampUTC time.Time) bool) (recordIDs, entryIDs []int64) {
	for _, r := range s.Records {
		if pred(r.InternalID, r.Metadata.TimestampUTC) {
			recordIDs = append(recordIDs, r.InternalID)
		}
	}
	for _, entries := range s.Ledgers {
		for _, e := range entries {
			if pred(e.InternalRecordID, e.TimestampUTC) {
				entryIDs = append(entryIDs, e.InternalEntryID)
			}
		}
	}
	return recordIDs, entryIDs
}

// RemoveEntries removes the handling entries with the given entry ids.
func (s *State) RemoveEntries(entryIDs []int64) {
	if len(entryIDs) == 0 {
		return
	}
	doomed := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		doomed[id] = true
	}
	for concern, entries := range s.Ledgers {
		kept := entries[:0]
		for _, e := range entries {
			if !doomed[e.InternalEntryID] {
				kept = append(kept, e)
			}
		}
		s.Ledgers[concern] = kept
	}
}

// Clear empties the partition, as on stream overwrite.
func (s *State) Clear() {
	s.Records = nil
	s.Ledgers = make(map[string][]record.HandlingEntry)
}
