package filestream

import (
	"context"
	"time"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

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

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	dir, err := s.resolveDir(ctx, op, opts.Locator)
	if err != nil {
		return stream.PutResult{}, err
	}
	ds, err := s.loadState(dir)
	if err != nil {
		return stream.PutResult{}, err
	}

	decision, err := ds.state.PlanPut(op, metadata, payload, strategy, opts.RetentionCount, opts.VersionMatch, ds.loadPayload)
	if err != nil {
		return stream.PutResult{}, err
	}
	if !decision.Write {
		return stream.PutResult{ExistingInternalIDs: decision.ExistingIDs}, nil
	}

	var newID int64
	if opts.InternalID != nil {
		newID = *opts.InternalID
		if ds.state.HasRecord(newID) {
			return stream.PutResult{}, record.NewConflictError(op, "internal record id already exists", newID)
		}
		// Raise the counter's high-water mark so later auto-generated
		// ids never collide with this one.
		if err := s.recordCounter(dir).Raise(newID); err != nil {
			return stream.PutResult{}, err
		}
	} else {
		newID, err = s.recordCounter(dir).Next()
		if err != nil {
			return stream.PutResult{}, err
		}
	}

	if err := ds.writeRecord(record.Record{InternalID: newID, Metadata: metadata, Payload: payload}); err != nil {
		return stream.PutResult{}, err
	}
	if err := ds.removeRecords(decision.PruneIDs); err != nil {
		return stream.PutResult{}, err
	}

	s.metrics.SetRecordCount(len(ds.state.Records))
	return stream.PutResult{
		InternalID:          &newID,
		ExistingInternalIDs: decision.ExistingIDs,
		PrunedInternalIDs:   decision.PruneIDs,
	}, nil
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
	// The tracker file's advisory lock is the exclusion point; no stream
	// mutex is needed.
	dir, err := s.resolveDir(ctx, op, opts.Locator)
	if err != nil {
		return 0, err
	}
	return s.uniqueLongTracker(dir).Next(details, s.tokens.Generate(), s.now())
}

// UniqueLongIssuances returns a copy of the issuance audit trail for the
// partition. Test and operator tooling support; not part of the contract.
func (s *Stream) UniqueLongIssuances(ctx context.Context, opts stream.UniqueLongOptions) ([]IssuanceEvent, error) {
	const op = "UniqueLongIssuances"
	dir, err := s.resolveDir(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	return s.uniqueLongTracker(dir).Events()
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

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	dir, err := s.resolveDir(ctx, op, opts.Locator)
	if err != nil {
		return err
	}
	ds, err := s.loadState(dir)
	if err != nil {
		return err
	}

	recordIDs, entryIDs := ds.state.PlanPrune(opts.Predicate)
	if err := ds.removeRecords(recordIDs); err != nil {
		return err
	}
	if err := ds.removeEntries(entryIDs); err != nil {
		return err
	}

	s.logger.Info("pruned stream partition",
		"stream", s.name, "dir", dir,
		"records", len(recordIDs), "entries", len(entryIDs),
		"details", opts.Details)
	s.metrics.SetRecordCount(len(ds.state.Records))
	return nil
}
