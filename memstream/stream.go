// Package memstream implements the strand stream contract over in-process
// memory.
//
// One exclusive mutex per Stream instance guards all state: partitions,
// handling ledgers, counters. Every operation holds it for its entire
// duration, reads included. This is deliberately coarse — the
// at-most-one-concurrent-claim guarantee of TryHandleRecord depends on the
// eligibility scan and the claim append happening in one exclusive section,
// and correctness wins over parallel read throughput here.
package memstream

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/strandkit/strand/internal/partition"
	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// IssuanceEvent is the audit entry recorded for every unique long issued.
type IssuanceEvent struct {
	Value        int64     `json:"value"`
	Details      string    `json:"details"`
	EventID      string    `json:"eventId"`
	TimestampUTC time.Time `json:"timestampUtc"`
}

// part is one in-memory partition together with its three counters.
type part struct {
	state *partition.State

	// recordID and entryID are high-water marks: the next auto-generated
	// id is the mark plus one. Explicit-id puts raise recordID so later
	// auto ids never collide.
	recordID   int64
	entryID    int64
	uniqueLong int64

	issuances []IssuanceEvent
}

// Options configures a memory stream.
type Options struct {
	// Metrics enables Prometheus instrumentation. Nil disables it.
	Metrics *stream.Metrics

	// Now supplies timestamps for handling entries and issuance events.
	// Defaults to time.Now in UTC. Tests may inject a fixed clock.
	Now func() time.Time

	// Rand drives OrderRandom selection. Defaults to a time-seeded
	// source.
	Rand *rand.Rand

	// Tokens generates issuance event ids. Defaults to UUIDv7.
	Tokens stream.TokenGenerator
}

// Stream is the in-process backend.
type Stream struct {
	name     string
	resolver locator.Resolver
	metrics  *stream.Metrics
	now      func() time.Time
	tokens   stream.TokenGenerator

	mu         sync.Mutex
	created    bool
	partitions map[string]*part
	rng        *rand.Rand
}

var _ stream.Stream = (*Stream)(nil)

// New creates a memory stream. The stream holds no records until Create is
// called.
func New(name string, resolver locator.Resolver, opts Options) (*Stream, error) {
	if name == "" {
		return nil, record.NewValidationError("memstream.New", "name", "must not be empty")
	}
	if resolver == nil {
		return nil, record.NewValidationError("memstream.New", "resolver", "must not be nil")
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = stream.UUIDv7Generator{}
	}
	return &Stream{
		name:       name,
		resolver:   resolver,
		metrics:    opts.Metrics,
		now:        now,
		tokens:     tokens,
		partitions: make(map[string]*part),
		rng:        rng,
	}, nil
}

// Name implements stream.Manager.
func (s *Stream) Name() string { return s.name }

// Create implements stream.Manager.
func (s *Stream) Create(ctx context.Context, opts stream.CreateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.created {
		switch opts.ExistingStream {
		case stream.ExistingStreamThrow:
			return record.NewConflictError("Create", "stream "+s.name+" already exists")
		case stream.ExistingStreamSkip:
			return nil
		case stream.ExistingStreamOverwrite:
			s.partitions = make(map[string]*part)
			return nil
		default:
			return record.NewUnsupportedValueError("ExistingStreamStrategy", opts.ExistingStream.String())
		}
	}
	s.created = true
	s.partitions = make(map[string]*part)
	return nil
}

// Delete implements stream.Manager.
func (s *Stream) Delete(ctx context.Context, opts stream.DeleteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.created {
		if opts.SkipIfNotFound {
			return nil
		}
		return record.NewNotFoundError("Delete", "stream "+s.name)
	}
	s.created = false
	s.partitions = make(map[string]*part)
	return nil
}

// ensureCreated fails operations against a stream that has not been
// created. Callers must hold s.mu.
func (s *Stream) ensureCreated(op string) error {
	if !s.created {
		return record.NewNotFoundError(op, "stream "+s.name)
	}
	return nil
}

// resolve returns the partition for the explicit locator, or the resolver's
// unique partition when none was supplied. Callers must hold s.mu.
func (s *Stream) resolve(ctx context.Context, op string, explicit locator.Locator) (*part, error) {
	loc, err := stream.ResolveSingleLocator(ctx, op, s.resolver, explicit)
	if err != nil {
		return nil, err
	}
	return s.partitionFor(loc), nil
}

// partitionFor returns the partition for a locator, creating it empty on
// first use. Callers must hold s.mu.
func (s *Stream) partitionFor(loc locator.Locator) *part {
	key := loc.Key()
	p, ok := s.partitions[key]
	if !ok {
		p = &part{state: partition.NewState()}
		s.partitions[key] = p
	}
	return p
}

// candidateParts returns the partitions a multi-partition operation should
// visit, in resolver order. Callers must hold s.mu.
func (s *Stream) candidateParts(ctx context.Context, explicit locator.Locator) ([]*part, error) {
	if explicit != nil {
		return []*part{s.partitionFor(explicit)}, nil
	}
	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	parts := make([]*part, 0, len(all))
	for _, loc := range all {
		parts = append(parts, s.partitionFor(loc))
	}
	return parts, nil
}

// recordCount returns the total record count across partitions. Callers
// must hold s.mu.
func (s *Stream) recordCount() int {
	n := 0
	for _, p := range s.partitions {
		n += len(p.state.Records)
	}
	return n
}
