package sqlitestream

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/strandkit/strand/internal/partition"
	"github.com/strandkit/strand/record"
)

// querier is the subset of sql.DB and sql.Tx the row mapping needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loadState reads a partition database into memory, payloads included.
func loadState(ctx context.Context, q querier) (*partition.State, error) {
	state := partition.NewState()

	rows, err := q.QueryContext(ctx, `
		SELECT internal_id, metadata, payload_kind, payload_text, payload_data
		FROM records ORDER BY internal_id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		state.AppendRecord(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	entryRows, err := q.QueryContext(ctx, `
		SELECT internal_entry_id, internal_record_id, concern, status, tags, details, timestamp_utc
		FROM handling_entries ORDER BY internal_entry_id`)
	if err != nil {
		return nil, fmt.Errorf("query handling entries: %w", err)
	}
	defer entryRows.Close()
	for entryRows.Next() {
		e, err := scanEntry(entryRows)
		if err != nil {
			return nil, err
		}
		state.AppendEntry(e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handling entries: %w", err)
	}
	return state, nil
}

func scanRecord(rows *sql.Rows) (record.Record, error) {
	var (
		internalID  int64
		metadataRaw string
		kindName    string
		text        string
		data        []byte
	)
	if err := rows.Scan(&internalID, &metadataRaw, &kindName, &text, &data); err != nil {
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}
	var metadata record.Metadata
	if err := json.Unmarshal([]byte(metadataRaw), &metadata); err != nil {
		return record.Record{}, fmt.Errorf("parse metadata for record %d: %w", internalID, err)
	}
	kind, err := record.ParseSerializerKindExtension(kindName)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %d: %w", internalID, err)
	}
	payload := record.Payload{Kind: kind}
	if payload.IsBinary() {
		payload.Data = data
	} else {
		payload.Text = text
	}
	return record.Record{InternalID: internalID, Metadata: metadata, Payload: payload}, nil
}

func scanEntry(rows *sql.Rows) (record.HandlingEntry, error) {
	var (
		e       record.HandlingEntry
		status  string
		tagsRaw sql.NullString
		tsRaw   string
	)
	if err := rows.Scan(&e.InternalEntryID, &e.InternalRecordID, &e.Concern, &status, &tagsRaw, &e.Details, &tsRaw); err != nil {
		return record.HandlingEntry{}, fmt.Errorf("scan handling entry: %w", err)
	}
	parsed, err := record.ParseHandlingStatus(status)
	if err != nil {
		return record.HandlingEntry{}, fmt.Errorf("handling entry %d: %w", e.InternalEntryID, err)
	}
	e.Status = parsed
	if tagsRaw.Valid && tagsRaw.String != "" {
		if err := json.Unmarshal([]byte(tagsRaw.String), &e.Tags); err != nil {
			return record.HandlingEntry{}, fmt.Errorf("parse tags for handling entry %d: %w", e.InternalEntryID, err)
		}
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return record.HandlingEntry{}, fmt.Errorf("parse timestamp for handling entry %d: %w", e.InternalEntryID, err)
	}
	e.TimestampUTC = ts.UTC()
	return e, nil
}

func insertRecord(ctx context.Context, q querier, r record.Record) error {
	metadataRaw, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for record %d: %w", r.InternalID, err)
	}
	kindName, err := r.Payload.Kind.FileExtension()
	if err != nil {
		return err
	}
	var stringID any
	if r.Metadata.StringSerializedID != nil {
		stringID = *r.Metadata.StringSerializedID
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO records (internal_id, string_id, metadata, payload_kind, payload_text, payload_data, timestamp_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.InternalID, stringID, string(metadataRaw), kindName,
		r.Payload.Text, r.Payload.Data,
		r.Metadata.TimestampUTC.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert record %d: %w", r.InternalID, err)
	}
	return nil
}

func insertEntry(ctx context.Context, q querier, e record.HandlingEntry) error {
	var tags any
	if len(e.Tags) > 0 {
		raw, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags for handling entry %d: %w", e.InternalEntryID, err)
		}
		tags = string(raw)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO handling_entries (internal_entry_id, internal_record_id, concern, status, tags, details, timestamp_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.InternalEntryID, e.InternalRecordID, e.Concern, e.Status.String(),
		tags, e.Details, e.TimestampUTC.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert handling entry %d: %w", e.InternalEntryID, err)
	}
	return nil
}

// deleteRecords removes records plus every handling entry for those record
// ids.
func deleteRecords(ctx context.Context, q querier, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := placeholderList(ids)
	if _, err := q.ExecContext(ctx,
		"DELETE FROM handling_entries WHERE internal_record_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete handling entries for records: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		"DELETE FROM records WHERE internal_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

func deleteEntries(ctx context.Context, q querier, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	placeholders, args := placeholderList(entryIDs)
	if _, err := q.ExecContext(ctx,
		"DELETE FROM handling_entries WHERE internal_entry_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete handling entries: %w", err)
	}
	return nil
}

func placeholderList(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

// nextCounter atomically increments a named counter and returns the new
// value.
func nextCounter(ctx context.Context, q querier, name string) (int64, error) {
	var value int64
	err := q.QueryRowContext(ctx,
		"UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value", name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}

// raiseCounter lifts a named counter to at least min.
func raiseCounter(ctx context.Context, q querier, name string, min int64) error {
	if _, err := q.ExecContext(ctx,
		"UPDATE counters SET value = MAX(value, ?) WHERE name = ?", min, name); err != nil {
		return fmt.Errorf("raise counter %s: %w", name, err)
	}
	return nil
}
