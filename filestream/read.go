package filestream

import (
	"context"
	"time"

	"github.com/strandkit/strand/internal/partition"
	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// GetLatestRecord implements stream.RecordReader.
func (s *Stream) GetLatestRecord(ctx context.Context, opts stream.GetOptions) (*record.Record, error) {
	const op = "GetLatestRecord"
	start := time.Now()
	r, err := s.latest(ctx, op, opts.Filter(nil), opts)
	s.metrics.ObserveOp(op, start, err)
	return r, err
}

// GetLatestRecordByID implements stream.RecordReader.
func (s *Stream) GetLatestRecordByID(ctx context.Context, id string, opts stream.GetOptions) (*record.Record, error) {
	const op = "GetLatestRecordByID"
	start := time.Now()
	r, err := s.latest(ctx, op, opts.Filter(&id), opts)
	s.metrics.ObserveOp(op, start, err)
	return r, err
}

func (s *Stream) latest(ctx context.Context, op string, f record.Filter, opts stream.GetOptions) (*record.Record, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	r, err := ds.state.Latest(f)
	if err != nil {
		return nil, err
	}
	if r == nil {
		if opts.NotFoundStrategy() == record.NotFoundThrow {
			return nil, record.NewNotFoundError(op, "record")
		}
		return nil, nil
	}
	loaded, err := ds.withPayload(*r)
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

// GetAllRecordsByID implements stream.RecordReader.
func (s *Stream) GetAllRecordsByID(ctx context.Context, id string, opts stream.GetOptions) ([]record.Record, error) {
	const op = "GetAllRecordsByID"
	start := time.Now()
	records, err := s.allByID(ctx, op, id, opts, true)
	s.metrics.ObserveOp(op, start, err)
	return records, err
}

func (s *Stream) allByID(ctx context.Context, op, id string, opts stream.GetOptions, loadPayloads bool) ([]record.Record, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	matched, err := ds.state.Match(opts.Filter(&id))
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		if opts.NotFoundStrategy() == record.NotFoundThrow {
			return nil, record.NewNotFoundError(op, "record")
		}
		return nil, nil
	}
	ordered, err := partition.OrderRecords(matched, opts.EffectiveOrder(), s.rng)
	if err != nil {
		return nil, err
	}
	if !loadPayloads {
		return ordered, nil
	}
	return ds.withPayloads(ordered)
}

// GetAllRecordsMetadataByID implements stream.RecordReader.
func (s *Stream) GetAllRecordsMetadataByID(ctx context.Context, id string, opts stream.GetOptions) ([]record.Metadata, error) {
	const op = "GetAllRecordsMetadataByID"
	start := time.Now()
	records, err := s.allByID(ctx, op, id, opts, false)
	s.metrics.ObserveOp(op, start, err)
	if err != nil {
		return nil, err
	}
	metadata := make([]record.Metadata, len(records))
	for i, r := range records {
		metadata[i] = r.Metadata
	}
	return metadata, nil
}

// GetRecordByInternalID implements stream.RecordReader.
func (s *Stream) GetRecordByInternalID(ctx context.Context, internalID int64, opts stream.GetOptions) (*record.Record, error) {
	const op = "GetRecordByInternalID"
	start := time.Now()
	r, err := s.byInternalID(ctx, op, internalID, opts)
	s.metrics.ObserveOp(op, start, err)
	return r, err
}

func (s *Stream) byInternalID(ctx context.Context, op string, internalID int64, opts stream.GetOptions) (*record.Record, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	r := ds.state.RecordByInternalID(internalID)
	if r == nil {
		if opts.NotFoundStrategy() == record.NotFoundThrow {
			return nil, record.NewNotFoundError(op, "record")
		}
		return nil, nil
	}
	loaded, err := ds.withPayload(*r)
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

// DoesAnyExistByID implements stream.RecordReader.
func (s *Stream) DoesAnyExistByID(ctx context.Context, id string, opts stream.GetOptions) (bool, error) {
	const op = "DoesAnyExistByID"
	start := time.Now()
	exists, err := s.anyExist(ctx, op, id, opts)
	s.metrics.ObserveOp(op, start, err)
	return exists, err
}

func (s *Stream) anyExist(ctx context.Context, op, id string, opts stream.GetOptions) (bool, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return false, err
	}
	matched, err := ds.state.Match(opts.Filter(&id))
	if err != nil {
		return false, err
	}
	if len(matched) == 0 && opts.NotFoundStrategy() == record.NotFoundThrow {
		return false, record.NewNotFoundError(op, "record")
	}
	return len(matched) > 0, nil
}

// GetDistinctStringSerializedIDs implements stream.RecordReader.
func (s *Stream) GetDistinctStringSerializedIDs(ctx context.Context, opts stream.GetOptions) ([]string, error) {
	const op = "GetDistinctStringSerializedIDs"
	start := time.Now()
	ids, err := s.distinctIDs(ctx, op, opts)
	s.metrics.ObserveOp(op, start, err)
	return ids, err
}

func (s *Stream) distinctIDs(ctx context.Context, op string, opts stream.GetOptions) ([]string, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	ds, err := s.load(ctx, op, opts.Locator)
	if err != nil {
		return nil, err
	}
	return ds.state.DistinctStringIDs(opts.Filter(nil))
}

// load resolves the partition directory and reads it into memory. Callers
// must hold the locks their operation needs.
func (s *Stream) load(ctx context.Context, op string, explicit locator.Locator) (*dirState, error) {
	dir, err := s.resolveDir(ctx, op, explicit)
	if err != nil {
		return nil, err
	}
	return s.loadState(dir)
}
