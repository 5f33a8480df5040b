package sqlitestream

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Put implements stream.RecordWriter.
func (s *Stream) Put(ctx context.Context, metadata record.Metadata, payload record.Payload, opts stream.PutOptions) (stream.PutResult, error) {
	const op = "Put"
	start := time.Now()
	result, err := s.put(ctx, op, metadata, payload, opts)
	s.metrics.ObserveOp(op, start, err)
	return result, err
}

func (s *Stream) put(ctx context.Context, op string, metadata record.Metadata, payload record.Payload, opts stream.PutOptions) (stream.PutResult, error) {
	if err := metadata.Validate(); err != nil {
		return stream.PutResult{}, err
	}
	if err := payload.Validate(); err != nil {
		return stream.PutResult{}, err
	}
	strategy := opts.ExistingRecord
	if strategy == 0 {
		strategy = record.ExistingRecordNone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.resolveDB(ctx, op, opts.Locator)
	if err != nil {
		return stream.PutResult{}, err
	}

	var result stream.PutResult
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		decision, err := state.PlanPut(op, metadata, payload, strategy, opts.RetentionCount, opts.VersionMatch, nil)
		if err != nil {
			return err
		}
		if !decision.Write {
			result = stream.PutResult{ExistingInternalIDs: decision.ExistingIDs}
			return nil
		}

		var newID int64
		if opts.InternalID != nil {
			newID = *opts.InternalID
			if state.HasRecord(newID) {
				return record.NewConflictError(op, "internal record id already exists", newID)
			}
			if err := raiseCounter(ctx, tx, "record_id", newID); err != nil {
				return err
			}
		} else {
			newID, err = nextCounter(ctx, tx, "record_id")
			if err != nil {
				return err
			}
		}

		if err := insertRecord(ctx, tx, record.Record{InternalID: newID, Metadata: metadata, Payload: payload}); err != nil {
			return err
		}
		if err := deleteRecords(ctx, tx, decision.PruneIDs); err != nil {
			return err
		}

		s.metrics.SetRecordCount(len(state.Records) + 1 - len(decision.PruneIDs))
		result = stream.PutResult{
			InternalID:          &newID,
			ExistingInternalIDs: decision.ExistingIDs,
			PrunedInternalIDs:   decision.PruneIDs,
		}
		return nil
	})
	if err != nil {
		return stream.PutResult{}, err
	}
	return result, nil
}

// GetNextUniqueLong implements stream.RecordWriter.
func (s *Stream) GetNextUniqueLong(ctx context.Context, details string, opts stream.UniqueLongOptions) (int64, error) {
	const op = "GetNextUniqueLong"
	start := time.Now()
	value, err := s.nextUniqueLong(ctx, op, details, opts)
	s.metrics.ObserveOp(op, start, err)
	return value, err
}

func (s *Stream) nextUniqueLong(ctx context.Context, op, details string, opts stream.UniqueLongOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.resolveDB(ctx, op, opts.Locator)
	if err != nil {
		return 0, err
	}

	var value int64
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(value), 0) + 1 FROM unique_long_events").Scan(&value)
		if err != nil {
			return fmt.Errorf("next unique long: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO unique_long_events (value, details, event_id, timestamp_utc)
			VALUES (?, ?, ?, ?)`,
			value, details, s.tokens.Generate(), s.now().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("record unique long issuance: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Prune implements stream.RecordWriter.
func (s *Stream) Prune(ctx context.Context, opts stream.PruneOptions) error {
	const op = "Prune"
	start := time.Now()
	err := s.prune(ctx, op, opts)
	s.metrics.ObserveOp(op, start, err)
	return err
}

func (s *Stream) prune(ctx context.Context, op string, opts stream.PruneOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.resolveDB(ctx, op, opts.Locator)
	if err != nil {
		return err
	}

	return inTx(ctx, db, func(tx *sql.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		recordIDs, entryIDs := state.PlanPrune(opts.Predicate)
		if err := deleteRecords(ctx, tx, recordIDs); err != nil {
			return err
		}
		if err := deleteEntries(ctx, tx, entryIDs); err != nil {
			return err
		}
		s.logger.Info("pruned stream partition",
			"stream", s.name,
			"records", len(recordIDs), "entries", len(entryIDs),
			"details", opts.Details)
		s.metrics.SetRecordCount(len(state.Records) - len(recordIDs))
		return nil
	})
}
