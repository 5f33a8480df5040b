package filestream

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strandkit/strand/internal/partition"
	"github.com/strandkit/strand/record"
)

// dirState is a partition directory loaded into memory. Record payloads are
// NOT loaded; Records carry metadata only and payloads are fetched on demand
// through loadPayload using the payloadPath index.
type dirState struct {
	dir   string
	state *partition.State

	payloadPath map[int64]string
	entryPath   map[int64]string
}

// loadState reads a partition directory into a dirState. A metadata file
// without its payload sibling (or the reverse) means a previous write was
// torn; that is a hard consistency error, not something to skip over.
func (s *Stream) loadState(dir string) (*dirState, error) {
	ds := &dirState{
		dir:         dir,
		state:       partition.NewState(),
		payloadPath: make(map[int64]string),
		entryPath:   make(map[int64]string),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read stream dir %s: %w", dir, err)
	}
	metaNames := make(map[string]bool)
	var payloadNames []string
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || strings.HasSuffix(name, ".nfo") {
			continue
		}
		if strings.HasSuffix(name, "."+metaExtension) {
			metaNames[name] = true
			continue
		}
		payloadNames = append(payloadNames, name)
	}

	for _, name := range payloadNames {
		parsed, err := decodeRecordFileName(name)
		if err != nil {
			return nil, fmt.Errorf("stream dir %s: %w", dir, err)
		}
		metaName := metaFileNameFor(name)
		if !metaNames[metaName] {
			return nil, fmt.Errorf("stream dir %s: payload %s has no metadata sibling", dir, name)
		}
		delete(metaNames, metaName)
		metaPath := filepath.Join(dir, metaName)
		raw, err := os.ReadFile(metaPath)
		if err != nil {
			return nil, fmt.Errorf("read metadata %s: %w", metaPath, err)
		}
		var metadata record.Metadata
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, fmt.Errorf("parse metadata %s: %w", metaPath, err)
		}
		ds.state.AppendRecord(record.Record{InternalID: parsed.InternalID, Metadata: metadata})
		ds.payloadPath[parsed.InternalID] = filepath.Join(dir, name)
	}
	for name := range metaNames {
		return nil, fmt.Errorf("stream dir %s: metadata %s has no payload sibling", dir, name)
	}

	if err := s.loadLedgers(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// loadLedgers reads every concern's handling entries under _HandlingTracking
// into the state, sorted ascending by entry id per concern.
func (s *Stream) loadLedgers(ds *dirState) error {
	root := handlingDir(ds.dir)
	concernDirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read handling dir %s: %w", root, err)
	}
	for _, cd := range concernDirs {
		if !cd.IsDir() {
			continue
		}
		concern := UnescapePathSegment(cd.Name())
		dir := filepath.Join(root, cd.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read concern dir %s: %w", dir, err)
		}
		entries := make([]record.HandlingEntry, 0, len(files))
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			parsed, err := decodeEntryFileName(f.Name())
			if err != nil {
				return fmt.Errorf("concern dir %s: %w", dir, err)
			}
			path := filepath.Join(dir, f.Name())
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read handling entry %s: %w", path, err)
			}
			var e record.HandlingEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("parse handling entry %s: %w", path, err)
			}
			// The file name is authoritative for identity; the body
			// carries tags and details.
			e.InternalEntryID = parsed.InternalEntryID
			e.InternalRecordID = parsed.InternalRecordID
			e.Concern = concern
			e.Status = parsed.Status
			e.TimestampUTC = parsed.TimestampUTC
			entries = append(entries, e)
			ds.entryPath[e.InternalEntryID] = path
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].InternalEntryID < entries[j].InternalEntryID
		})
		for _, e := range entries {
			ds.state.AppendEntry(e)
		}
	}
	return nil
}

// loadPayload reads a record's payload file by internal id.
func (ds *dirState) loadPayload(internalID int64) (record.Payload, error) {
	path, ok := ds.payloadPath[internalID]
	if !ok {
		return record.Payload{}, record.NewNotFoundError("loadPayload", fmt.Sprintf("payload for record %d", internalID))
	}
	parsed, err := decodeRecordFileName(filepath.Base(path))
	if err != nil {
		return record.Payload{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return record.Payload{}, fmt.Errorf("read payload %s: %w", path, err)
	}
	p := record.Payload{Kind: parsed.Kind}
	if p.IsBinary() {
		p.Data = raw
	} else {
		p.Text = string(raw)
	}
	return p, nil
}

// withPayload returns a copy of the record with its payload loaded.
func (ds *dirState) withPayload(r record.Record) (record.Record, error) {
	p, err := ds.loadPayload(r.InternalID)
	if err != nil {
		return record.Record{}, err
	}
	r.Payload = p
	return r, nil
}

// withPayloads loads payloads for a slice of records.
func (ds *dirState) withPayloads(records []record.Record) ([]record.Record, error) {
	out := make([]record.Record, len(records))
	for i, r := range records {
		loaded, err := ds.withPayload(r)
		if err != nil {
			return nil, err
		}
		out[i] = loaded
	}
	return out, nil
}

// writeRecord persists a record as a payload file plus its metadata
// sibling. A torn write leaves an unpaired file either way, which loadState
// treats as fatal.
func (ds *dirState) writeRecord(r record.Record) error {
	name, err := encodeRecordFileName(r.InternalID, r.Metadata.TimestampUTC, r.Metadata.StringSerializedID, r.Payload.Kind)
	if err != nil {
		return err
	}
	path := filepath.Join(ds.dir, name)

	content := []byte(r.Payload.Text)
	if r.Payload.IsBinary() {
		content = r.Payload.Data
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write payload %s: %w", path, err)
	}

	raw, err := json.MarshalIndent(r.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata for record %d: %w", r.InternalID, err)
	}
	metaPath := filepath.Join(ds.dir, metaFileNameFor(name))
	if err := os.WriteFile(metaPath, raw, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", metaPath, err)
	}

	ds.state.AppendRecord(record.Record{InternalID: r.InternalID, Metadata: r.Metadata})
	ds.payloadPath[r.InternalID] = path
	return nil
}

// writeEntry persists a handling entry under its concern's directory.
func (ds *dirState) writeEntry(e record.HandlingEntry, stringID *string) error {
	dir := concernDir(ds.dir, e.Concern)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create concern dir %s: %w", dir, err)
	}
	name := encodeEntryFileName(entryFileName{
		InternalEntryID:  e.InternalEntryID,
		TimestampUTC:     e.TimestampUTC,
		InternalRecordID: e.InternalRecordID,
		StringID:         stringID,
		Status:           e.Status,
	})
	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal handling entry %d: %w", e.InternalEntryID, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write handling entry %s: %w", path, err)
	}

	ds.state.AppendEntry(e)
	ds.entryPath[e.InternalEntryID] = path
	return nil
}

// removeRecords deletes the given records' payload and metadata files plus
// every handling entry file for those record ids, then drops them from the
// state.
func (ds *dirState) removeRecords(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	doomed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	var entryIDs []int64
	for _, entries := range ds.state.Ledgers {
		for _, e := range entries {
			if doomed[e.InternalRecordID] {
				entryIDs = append(entryIDs, e.InternalEntryID)
			}
		}
	}
	if err := ds.removeEntryFiles(entryIDs); err != nil {
		return err
	}

	for _, id := range ids {
		path, ok := ds.payloadPath[id]
		if !ok {
			continue
		}
		metaPath := filepath.Join(ds.dir, metaFileNameFor(filepath.Base(path)))
		if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove metadata %s: %w", metaPath, err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove payload %s: %w", path, err)
		}
		delete(ds.payloadPath, id)
	}

	ds.state.RemoveRecords(ids)
	return nil
}

// removeEntries deletes handling entry files by entry id and drops them
// from the state.
func (ds *dirState) removeEntries(entryIDs []int64) error {
	if err := ds.removeEntryFiles(entryIDs); err != nil {
		return err
	}
	ds.state.RemoveEntries(entryIDs)
	return nil
}

func (ds *dirState) removeEntryFiles(entryIDs []int64) error {
	for _, id := range entryIDs {
		path, ok := ds.entryPath[id]
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove handling entry %s: %w", path, err)
		}
		delete(ds.entryPath, id)
	}
	return nil
}

// stringIDOf returns the string-serialized id of a record in the state, nil
// for the stream-wide sentinel or unknown records.
func (ds *dirState) stringIDOf(internalRecordID int64) *string {
	if r := ds.state.RecordByInternalID(internalRecordID); r != nil {
		return r.Metadata.StringSerializedID
	}
	return nil
}
