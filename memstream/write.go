package memstream

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

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCreated(op); err != nil {
		return stream.PutResult{}, err
	}
	p, err := s.resolve(ctx, op, opts.Locator)
	if err != nil {
		return stream.PutResult{}, err
	}

	decision, err := p.state.PlanPut(op, metadata, payload, strategy, opts.RetentionCount, opts.VersionMatch, nil)
	if err != nil {
		return stream.PutResult{}, err
	}
	if !decision.Write {
		return stream.PutResult{ExistingInternalIDs: decision.ExistingIDs}, nil
	}

	var newID int64
	if opts.InternalID != nil {
		newID = *opts.InternalID
		if p.state.HasRecord(newID) {
			return stream.PutResult{}, record.NewConflictError(op, "internal record id already exists", newID)
		}
		// Raise the high-water mark so later auto-generated ids never
		// collide with this one.
		if newID > p.recordID {
			p.recordID = newID
		}
	} else {
		p.recordID++
		newID = p.recordID
	}

	p.state.AppendRecord(record.Record{InternalID: newID, Metadata: metadata, Payload: payload})
	p.state.RemoveRecords(decision.PruneIDs)

	s.metrics.SetRecordCount(s.recordCount())
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
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCreated(op); err != nil {
		return 0, err
	}
	p, err := s.resolve(ctx, op, opts.Locator)
	if err != nil {
		return 0, err
	}

	p.uniqueLong++
	p.issuances = append(p.issuances, IssuanceEvent{
		Value:        p.uniqueLong,
		Details:      details,
		EventID:      s.tokens.Generate(),
		TimestampUTC: s.now(),
	})
	return p.uniqueLong, nil
}

// UniqueLongIssuances returns a copy of the issuance audit trail for the
// partition. Test and operator tooling support; not part of the contract.
func (s *Stream) UniqueLongIssuances(ctx context.Context, opts stream.UniqueLongOptions) ([]IssuanceEvent, error) {
	const op = "UniqueLongIssuances"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCreated(op); err != nil {
		return nil, err
	}
	p, err := s.resolve(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	out := make([]IssuanceEvent, len(p.issuances))
	copy(out, p.issuances)
	return out, nil
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

	if err := s.ensureCreated(op); err != nil {
		return err
	}
	p, err := s.resolve(ctx, op, opts.Locator)
	if err != nil {
		return err
	}

	recordIDs, entryIDs := p.state.PlanPrune(opts.Predicate)
	p.state.RemoveRecords(recordIDs)
	p.state.RemoveEntries(entryIDs)

	s.metrics.SetRecordCount(s.recordCount())
	return nil
}
