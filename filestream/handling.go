package filestream

import (
	"context"
	"time"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// TryHandleRecord implements stream.RecordHandler.
func (s *Stream) TryHandleRecord(ctx context.Context, concern string, opts stream.TryHandleOptions) (stream.TryHandleResult, error) {
	const op = "TryHandleRecord"
	start := time.Now()
	result, err := s.tryHandle(ctx, op, concern, opts)
	s.metrics.ObserveOp(op, start, err)
	s.metrics.ObserveClaim(result.Record != nil)
	return result, err
}

func (s *Stream) tryHandle(ctx context.Context, op, concern string, opts stream.TryHandleOptions) (stream.TryHandleResult, error) {
	if err := record.ValidateConcern(concern); err != nil {
		return stream.TryHandleResult{}, err
	}
	if record.IsReservedConcern(concern) {
		return stream.TryHandleResult{}, record.NewValidationError(op, "concern", "reserved concern cannot be handled")
	}

	// Both locks: the eligibility scan reads record files and the claim
	// writes handling entries, and they must be one exclusive section.
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	dirs, err := s.candidateDirs(ctx, op, opts.Locator)
	if err != nil {
		return stream.TryHandleResult{}, err
	}

	for _, dir := range dirs {
		ds, err := s.loadState(dir)
		if err != nil {
			return stream.TryHandleResult{}, err
		}
		plan, err := ds.state.PlanClaim(concern, opts.Filter(), opts.MinimumInternalRecordID, opts.EffectiveOrder(), s.rng)
		if err != nil {
			return stream.TryHandleResult{}, err
		}
		if plan.Blocked {
			return stream.TryHandleResult{Blocked: true}, nil
		}
		if plan.Record == nil {
			continue
		}

		claimed := *plan.Record
		stringID := claimed.Metadata.StringSerializedID
		now := s.now()
		counter := s.entryCounter(dir)

		if plan.NeedsBaseline {
			entryID, err := counter.Next()
			if err != nil {
				return stream.TryHandleResult{}, err
			}
			baseline := record.HandlingEntry{
				InternalEntryID:  entryID,
				InternalRecordID: claimed.InternalID,
				Concern:          concern,
				Status:           record.StatusAvailableByDefault,
				TimestampUTC:     now,
			}
			if err := ds.writeEntry(baseline, stringID); err != nil {
				return stream.TryHandleResult{}, err
			}
		}

		tags := append([]record.Tag(nil), opts.EntryTags...)
		if opts.InheritRecordTags {
			tags = append(tags, claimed.Metadata.Tags...)
		}
		entryID, err := counter.Next()
		if err != nil {
			return stream.TryHandleResult{}, err
		}
		running := record.HandlingEntry{
			InternalEntryID:  entryID,
			InternalRecordID: claimed.InternalID,
			Concern:          concern,
			Status:           record.StatusRunning,
			Tags:             tags,
			Details:          opts.Details,
			TimestampUTC:     now,
		}
		if err := ds.writeEntry(running, stringID); err != nil {
			return stream.TryHandleResult{}, err
		}

		if !opts.MetadataOnly {
			claimed, err = ds.withPayload(claimed)
			if err != nil {
				return stream.TryHandleResult{}, err
			}
		}
		return stream.TryHandleResult{Record: &claimed}, nil
	}
	return stream.TryHandleResult{}, nil
}

// UpdateHandlingStatusForRecord implements stream.RecordHandler.
func (s *Stream) UpdateHandlingStatusForRecord(ctx context.Context, internalRecordID int64, concern string, opts stream.UpdateHandlingOptions) error {
	const op = "UpdateHandlingStatusForRecord"
	start := time.Now()
	err := s.updateRecordStatus(ctx, op, internalRecordID, concern, opts)
	s.metrics.ObserveOp(op, start, err)
	return err
}

func (s *Stream) updateRecordStatus(ctx context.Context, op string, internalRecordID int64, concern string, opts stream.UpdateHandlingOptions) error {
	if err := record.ValidateConcern(concern); err != nil {
		return err
	}
	if record.IsReservedConcern(concern) {
		return record.NewValidationError(op, "concern", "reserved concern cannot be updated directly")
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return err
	}
	if !ds.state.HasRecord(internalRecordID) {
		return record.NewNotFoundError(op, "record")
	}

	current := ds.state.CurrentRecordStatus(concern, internalRecordID)
	if err := stream.ValidateRecordTransition(op, concern, internalRecordID, current, opts.NewStatus, opts.AcceptableCurrentStatuses); err != nil {
		return err
	}

	// DisabledForRecord entries live under the reserved per-record disable
	// concern so they gate every concern, not just the one supplied.
	targetConcern := concern
	if opts.NewStatus == record.StatusDisabledForRecord {
		targetConcern = record.RecordHandlingDisabledConcern
	}

	entryID, err := s.entryCounter(ds.dir).Next()
	if err != nil {
		return err
	}
	return ds.writeEntry(record.HandlingEntry{
		InternalEntryID:  entryID,
		InternalRecordID: internalRecordID,
		Concern:          targetConcern,
		Status:           opts.NewStatus,
		Tags:             opts.Tags,
		Details:          opts.Details,
		TimestampUTC:     s.now(),
	}, ds.stringIDOf(internalRecordID))
}

// UpdateHandlingStatusForStream implements stream.RecordHandler.
func (s *Stream) UpdateHandlingStatusForStream(ctx context.Context, newStatus record.HandlingStatus, opts stream.UpdateStreamHandlingOptions) error {
	const op = "UpdateHandlingStatusForStream"
	start := time.Now()
	err := s.updateStreamStatus(ctx, op, newStatus, opts)
	s.metrics.ObserveOp(op, start, err)
	return err
}

func (s *Stream) updateStreamStatus(ctx context.Context, op string, newStatus record.HandlingStatus, opts stream.UpdateStreamHandlingOptions) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return err
	}

	current := ds.state.CurrentStatus(record.StreamHandlingDisabledConcern, record.GlobalBlockingRecordID)
	if err := stream.ValidateStreamTransition(op, current, newStatus); err != nil {
		return err
	}

	entryID, err := s.entryCounter(ds.dir).Next()
	if err != nil {
		return err
	}
	return ds.writeEntry(record.HandlingEntry{
		InternalEntryID:  entryID,
		InternalRecordID: record.GlobalBlockingRecordID,
		Concern:          record.StreamHandlingDisabledConcern,
		Status:           newStatus,
		Details:          opts.Details,
		TimestampUTC:     s.now(),
	}, nil)
}

// GetHandlingHistory implements stream.RecordHandler.
func (s *Stream) GetHandlingHistory(ctx context.Context, concern string, internalRecordID int64, opts stream.HandlingQueryOptions) ([]record.HandlingEntry, error) {
	const op = "GetHandlingHistory"
	if err := record.ValidateConcern(concern); err != nil {
		return nil, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	return ds.state.EntriesForRecord(concern, internalRecordID), nil
}

// GetHandlingStatusForRecords implements stream.RecordHandler.
func (s *Stream) GetHandlingStatusForRecords(ctx context.Context, concern string, ids []string, opts stream.HandlingStatusOptions) (map[string]record.HandlingStatus, error) {
	const op = "GetHandlingStatusForRecords"
	if err := record.ValidateConcern(concern); err != nil {
		return nil, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}

	if ds.state.StreamDisabled() {
		out := make(map[string]record.HandlingStatus, len(ids))
		for _, id := range ids {
			out[id] = record.StatusDisabledForStream
		}
		return out, nil
	}
	return ds.state.StatusesByIDs(concern, ids, opts.TypeOfID, opts.VersionMatch)
}

// GetHandlingStatusForTags implements stream.RecordHandler.
func (s *Stream) GetHandlingStatusForTags(ctx context.Context, concern string, tags []record.Tag, opts stream.HandlingStatusOptions) (map[int64]record.HandlingStatus, error) {
	const op = "GetHandlingStatusForTags"
	if err := record.ValidateConcern(concern); err != nil {
		return nil, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}

	statuses, err := ds.state.StatusesByTags(concern, tags, opts.TagMatch)
	if err != nil {
		return nil, err
	}
	if ds.state.StreamDisabled() {
		for id := range statuses {
			statuses[id] = record.StatusDisabledForStream
		}
	}
	return statuses, nil
}
