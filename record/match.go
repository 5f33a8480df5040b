package record

// Filter is a fuzzy record filter. Unset fields are wildcards: a nil ID
// matches any id, a nil type pair matches any type, an empty tag set matches
// any tags. Type comparisons honor VersionMatch; tag comparisons honor
// TagMatch (defaulting to RecordContainsAllQueryTags when unset).
type Filter struct {
	ID           *string
	TypeOfID     *TypeRepresentationPair
	TypeOfObject *TypeRepresentationPair
	VersionMatch VersionMatchStrategy
	Tags         []Tag
	TagMatch     TagMatchStrategy
}

// versionMatch returns the effective version match strategy.
func (f Filter) versionMatch() VersionMatchStrategy {
	if f.VersionMatch == VersionMatchUnknown {
		return VersionMatchAny
	}
	return f.VersionMatch
}

// tagMatch returns the effective tag match strategy.
func (f Filter) tagMatch() TagMatchStrategy {
	if f.TagMatch == TagMatchUnknown {
		return TagMatchRecordContainsAllQueryTags
	}
	return f.TagMatch
}

// Matches reports whether the metadata satisfies every set field of the
// filter.
func (f Filter) Matches(m Metadata) (bool, error) {
	if f.ID != nil && !m.IDEqual(f.ID) {
		return false, nil
	}
	if f.TypeOfID != nil {
		ok, err := m.TypeOfID.EqualUnder(*f.TypeOfID, f.versionMatch())
		if err != nil || !ok {
			return false, err
		}
	}
	if f.TypeOfObject != nil {
		ok, err := m.TypeOfObject.EqualUnder(*f.TypeOfObject, f.versionMatch())
		if err != nil || !ok {
			return false, err
		}
	}
	return TagsMatch(m.Tags, f.Tags, f.tagMatch())
}

// MatchRecords returns the records whose metadata satisfies the filter,
// preserving input order (ascending internal id when the input is a
// partition's record list).
func MatchRecords(records []Record, f Filter) ([]Record, error) {
	var out []Record
	for _, r := range records {
		ok, err := f.Matches(r.Metadata)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
