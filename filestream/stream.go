// Package filestream implements the strand stream contract over a directory
// tree. Record identity lives in file names, so the store is inspectable
// with nothing but ls.
//
// Layout per partition, rooted at {locator root}/{stream name}:
//
//	{id:D10}___{timestamp}___{encoded string id}.{ext}   payload
//	{id:D10}___{timestamp}___{encoded string id}.meta    metadata (JSON)
//	_HandlingTracking/{concern}/{entry file}.json        handling entries
//	_InternalRecordIdentifierTracking.nfo                record id counter
//	_InternalRecordHandlingEntryIdentifierTracking.nfo   entry id counter
//	_NextUniqueLongTracking.nfo                          unique long events
//
// Two in-process mutexes serialize operations: fileMu guards record files,
// handlingMu guards the handling tree. Operations that touch both take them
// in that order. The at-most-one-concurrent-claim guarantee of
// TryHandleRecord holds within one process; counter files additionally take
// advisory file locks so id issuance stays collision-free across processes.
package filestream

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

const (
	handlingDirName       = "_HandlingTracking"
	recordCounterName     = "_InternalRecordIdentifierTracking.nfo"
	entryCounterName      = "_InternalRecordHandlingEntryIdentifierTracking.nfo"
	uniqueLongTrackerName = "_NextUniqueLongTracking.nfo"
)

// Options configures a file stream.
type Options struct {
	// Metrics enables Prometheus instrumentation. Nil disables it.
	Metrics *stream.Metrics

	// Logger receives lifecycle and prune events. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Now supplies timestamps for handling entries and issuance events.
	// Defaults to time.Now in UTC. Tests may inject a fixed clock.
	Now func() time.Time

	// Rand drives OrderRandom selection. Defaults to a time-seeded
	// source.
	Rand *rand.Rand

	// Tokens generates issuance event ids. Defaults to UUIDv7.
	Tokens stream.TokenGenerator
}

// Stream is the file system backend.
type Stream struct {
	name     string
	resolver locator.Resolver
	metrics  *stream.Metrics
	logger   *slog.Logger
	now      func() time.Time
	tokens   stream.TokenGenerator

	// fileMu guards record payload and metadata files; handlingMu guards
	// the handling tree. Lock order: fileMu before handlingMu.
	fileMu     sync.Mutex
	handlingMu sync.Mutex

	rng *rand.Rand
}

var _ stream.Stream = (*Stream)(nil)

// New creates a file stream over the resolver's partitions. The directories
// are not touched until Create is called.
func New(name string, resolver locator.Resolver, opts Options) (*Stream, error) {
	if name == "" {
		return nil, record.NewValidationError("filestream.New", "name", "must not be empty")
	}
	if resolver == nil {
		return nil, record.NewValidationError("filestream.New", "resolver", "must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
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
		name:     name,
		resolver: resolver,
		metrics:  opts.Metrics,
		logger:   logger,
		now:      now,
		tokens:   tokens,
		rng:      rng,
	}, nil
}

// Name implements stream.Manager.
func (s *Stream) Name() string { return s.name }

// dirFor maps a locator to the partition's directory. Only FileSystem
// locators address directories.
func (s *Stream) dirFor(op string, loc locator.Locator) (string, error) {
	fs, ok := loc.(locator.FileSystem)
	if !ok {
		return "", record.NewValidationError(op, "locator",
			fmt.Sprintf("file stream requires a FileSystem locator, got %T", loc))
	}
	return filepath.Join(fs.RootPath, EscapePathSegment(s.name)), nil
}

func handlingDir(dir string) string {
	return filepath.Join(dir, handlingDirName)
}

func concernDir(dir, concern string) string {
	return filepath.Join(handlingDir(dir), EscapePathSegment(concern))
}

func (s *Stream) recordCounter(dir string) counterFile {
	return counterFile{path: filepath.Join(dir, recordCounterName)}
}

func (s *Stream) entryCounter(dir string) counterFile {
	return counterFile{path: filepath.Join(dir, entryCounterName)}
}

func (s *Stream) uniqueLongTracker(dir string) uniqueLongFile {
	return uniqueLongFile{path: filepath.Join(dir, uniqueLongTrackerName)}
}

// Create implements stream.Manager.
func (s *Stream) Create(ctx context.Context, opts stream.CreateOptions) error {
	const op = "Create"
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return err
	}
	for _, loc := range all {
		dir, err := s.dirFor(op, loc)
		if err != nil {
			return err
		}
		if dirExists(dir) {
			switch opts.ExistingStream {
			case stream.ExistingStreamThrow:
				return record.NewConflictError(op, "stream "+s.name+" already exists at "+dir)
			case stream.ExistingStreamSkip:
				continue
			case stream.ExistingStreamOverwrite:
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("overwrite stream dir %s: %w", dir, err)
				}
			default:
				return record.NewUnsupportedValueError("ExistingStreamStrategy", opts.ExistingStream.String())
			}
		}
		if err := os.MkdirAll(handlingDir(dir), 0o755); err != nil {
			return fmt.Errorf("create stream dir %s: %w", dir, err)
		}
		s.logger.Debug("stream partition created", "stream", s.name, "dir", dir)
	}
	return nil
}

// Delete implements stream.Manager.
func (s *Stream) Delete(ctx context.Context, opts stream.DeleteOptions) error {
	const op = "Delete"
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.handlingMu.Lock()
	defer s.handlingMu.Unlock()

	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, loc := range all {
		dir, err := s.dirFor(op, loc)
		if err != nil {
			return err
		}
		if !dirExists(dir) {
			continue
		}
		found = true
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("delete stream dir %s: %w", dir, err)
		}
		s.logger.Debug("stream partition deleted", "stream", s.name, "dir", dir)
	}
	if !found && !opts.SkipIfNotFound {
		return record.NewNotFoundError(op, "stream "+s.name)
	}
	return nil
}

// resolveDir returns the partition directory for the explicit locator, or
// the resolver's unique partition when none was supplied, failing when the
// stream has not been created there.
func (s *Stream) resolveDir(ctx context.Context, op string, explicit locator.Locator) (string, error) {
	loc, err := stream.ResolveSingleLocator(ctx, op, s.resolver, explicit)
	if err != nil {
		return "", err
	}
	dir, err := s.dirFor(op, loc)
	if err != nil {
		return "", err
	}
	if !dirExists(dir) {
		return "", record.NewNotFoundError(op, "stream "+s.name)
	}
	return dir, nil
}

// candidateDirs returns the partition directories a multi-partition
// operation should visit, in resolver order.
func (s *Stream) candidateDirs(ctx context.Context, op string, explicit locator.Locator) ([]string, error) {
	if explicit != nil {
		dir, err := s.resolveDir(ctx, op, explicit)
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(all))
	for _, loc := range all {
		dir, err := s.dirFor(op, loc)
		if err != nil {
			return nil, err
		}
		if !dirExists(dir) {
			return nil, record.NewNotFoundError(op, "stream "+s.name)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// CounterValues reads a partition's record and entry id counters without
// mutating them. Operator tooling support.
func CounterValues(rootPath, streamName string) (recordID, entryID int64, err error) {
	dir := filepath.Join(rootPath, EscapePathSegment(streamName))
	if !dirExists(dir) {
		return 0, 0, record.NewNotFoundError("CounterValues", "stream "+streamName)
	}
	recordID, err = counterFile{path: filepath.Join(dir, recordCounterName)}.Current()
	if err != nil {
		return 0, 0, err
	}
	entryID, err = counterFile{path: filepath.Join(dir, entryCounterName)}.Current()
	if err != nil {
		return 0, 0, err
	}
	return recordID, entryID, nil
}
