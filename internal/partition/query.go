package partition

import (
	"math/rand"
	"sort"

	"github.com/strandkit/strand/record"
)

// Match returns the records satisfying the filter, ascending by internal
// id.
func (s *State) Match(f record.Filter) ([]record.Record, error) {
	return record.MatchRecords(s.Records, f)
}

// Latest returns the matching record with the highest internal id, or nil.
func (s *State) Latest(f record.Filter) (*record.Record, error) {
	matched, err := s.Match(f)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	r := matched[len(matched)-1]
	return &r, nil
}

// DistinctStringIDs returns the distinct non-nil string-serialized ids of
// matching records, in first-appearance order.
func (s *State) DistinctStringIDs(f record.Filter) ([]string, error) {
	matched, err := s.Match(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range matched {
		if r.Metadata.StringSerializedID == nil {
			continue
		}
		id := *r.Metadata.StringSerializedID
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// OrderRecords returns a copy of the records arranged per the given order.
// OrderRandom shuffles uniformly using the supplied source.
func OrderRecords(records []record.Record, order record.OrderRecordsBy, rng *rand.Rand) ([]record.Record, error) {
	out := make([]record.Record, len(records))
	copy(out, records)
	switch order {
	case record.OrderInternalRecordIDAscending:
		sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	case record.OrderInternalRecordIDDescending:
		sort.Slice(out, func(i, j int) bool { return out[i].InternalID > out[j].InternalID })
	case record.OrderRandom:
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	default:
		return nil, record.NewUnsupportedValueError("OrderRecordsBy", order.String())
	}
	return out, nil
}

// SelectRecord picks one record per the given order: the lowest id, the
// highest id, or a uniform random draw. Returns nil for an empty input.
func SelectRecord(records []record.Record, order record.OrderRecordsBy, rng *rand.Rand) (*record.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}
	var picked record.Record
	switch order {
	case record.OrderInternalRecordIDAscending:
		picked = records[0]
		for _, r := range records[1:] {
			if r.InternalID < picked.InternalID {
				picked = r
			}
		}
	case record.OrderInternalRecordIDDescending:
		picked = records[0]
		for _, r := range records[1:] {
			if r.InternalID > picked.InternalID {
				picked = r
			}
		}
	case record.OrderRandom:
		picked = records[rng.Intn(len(records))]
	default:
		return nil, record.NewUnsupportedValueError("OrderRecordsBy", order.String())
	}
	return &picked, nil
}

// EligibleRecords returns the records a TryHandleRecord attempt may claim
// for the concern: those whose effective status (the concern's ledger
// merged with the per-record disable ledger) is available, further narrowed
// by the filter and the minimum internal record id. Records in any
// non-available status are excluded entirely, not merely deprioritized.
func (s *State) EligibleRecords(concern string, f record.Filter, minimumInternalRecordID *int64) ([]record.Record, error) {
	matched, err := s.Match(f)
	if err != nil {
		return nil, err
	}
	var out []record.Record
	for _, r := range matched {
		if minimumInternalRecordID != nil && r.InternalID < *minimumInternalRecordID {
			continue
		}
		if !s.CurrentRecordStatus(concern, r.InternalID).IsAvailable() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// StatusesByIDs returns, per queried string-serialized id, the effective
// status of the latest record matching that id under the optional id-type
// filter. Ids matching no record are omitted. The stream gate is the
// caller's responsibility.
func (s *State) StatusesByIDs(concern string, ids []string, typeOfID *record.TypeRepresentationPair, versionMatch record.VersionMatchStrategy) (map[string]record.HandlingStatus, error) {
	out := make(map[string]record.HandlingStatus, len(ids))
	for _, id := range ids {
		id := id
		latest, err := s.Latest(record.Filter{
			ID:           &id,
			TypeOfID:     typeOfID,
			VersionMatch: versionMatch,
		})
		if err != nil {
			return nil, err
		}
		if latest == nil {
			continue
		}
		out[id] = s.CurrentRecordStatus(concern, latest.InternalID)
	}
	return out, nil
}

// StatusesByTags returns the effective status of every record matching the
// tags under the given composition strategy, keyed by internal record id.
func (s *State) StatusesByTags(concern string, tags []record.Tag, tagMatch record.TagMatchStrategy) (map[int64]record.HandlingStatus, error) {
	matched, err := s.Match(record.Filter{Tags: tags, TagMatch: tagMatch})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]record.HandlingStatus, len(matched))
	for _, r := range matched {
		out[r.InternalID] = s.CurrentRecordStatus(concern, r.InternalID)
	}
	return out, nil
}
