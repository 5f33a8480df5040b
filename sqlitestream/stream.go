// Package sqlitestream implements the strand stream contract over SQLite,
// one database file per partition at {locator root}/{stream name}.db.
//
// Connections are configured for a single writer (WAL journal, one open
// connection) and every mutating operation runs in one transaction under the
// stream's mutex, which is what makes the TryHandleRecord claim atomic.
package sqlitestream

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

//go:embed schema.sql
var schemaSQL string

// Options configures a SQLite stream.
type Options struct {
	// Metrics enables Prometheus instrumentation. Nil disables it.
	Metrics *stream.Metrics

	// Logger receives lifecycle and prune events. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Now supplies timestamps for handling entries and issuance events.
	// Defaults to time.Now in UTC.
	Now func() time.Time

	// Rand drives OrderRandom selection. Defaults to a time-seeded
	// source.
	Rand *rand.Rand

	// Tokens generates issuance event ids. Defaults to UUIDv7.
	Tokens stream.TokenGenerator
}

// Stream is the SQLite backend.
type Stream struct {
	name     string
	resolver locator.Resolver
	metrics  *stream.Metrics
	logger   *slog.Logger
	now      func() time.Time
	tokens   stream.TokenGenerator

	mu  sync.Mutex
	dbs map[string]*sql.DB
	rng *rand.Rand
}

var _ stream.Stream = (*Stream)(nil)

// New creates a SQLite stream over the resolver's partitions. No database
// file is touched until Create is called.
func New(name string, resolver locator.Resolver, opts Options) (*Stream, error) {
	if name == "" {
		return nil, record.NewValidationError("sqlitestream.New", "name", "must not be empty")
	}
	if resolver == nil {
		return nil, record.NewValidationError("sqlitestream.New", "resolver", "must not be nil")
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
		dbs:      make(map[string]*sql.DB),
		rng:      rng,
	}, nil
}

// Name implements stream.Manager.
func (s *Stream) Name() string { return s.name }

// Close closes every open database. The stream is unusable afterwards.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for key, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, key)
	}
	return firstErr
}

// dbPathFor maps a locator to the partition's database file.
func (s *Stream) dbPathFor(op string, loc locator.Locator) (string, error) {
	fs, ok := loc.(locator.FileSystem)
	if !ok {
		return "", record.NewValidationError(op, "locator",
			fmt.Sprintf("sqlite stream requires a FileSystem locator, got %T", loc))
	}
	return filepath.Join(fs.RootPath, s.name+".db"), nil
}

// open opens (or creates) a partition database with the required pragmas
// and schema. Idempotent.
func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database %s: %w", path, err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// Create implements stream.Manager.
func (s *Stream) Create(ctx context.Context, opts stream.CreateOptions) error {
	const op = "Create"
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return err
	}
	for _, loc := range all {
		path, err := s.dbPathFor(op, loc)
		if err != nil {
			return err
		}
		if fileExists(path) {
			switch opts.ExistingStream {
			case stream.ExistingStreamThrow:
				return record.NewConflictError(op, "stream "+s.name+" already exists at "+path)
			case stream.ExistingStreamSkip:
				continue
			case stream.ExistingStreamOverwrite:
				if err := s.dropPartition(loc.Key(), path); err != nil {
					return err
				}
			default:
				return record.NewUnsupportedValueError("ExistingStreamStrategy", opts.ExistingStream.String())
			}
		}
		db, err := open(path)
		if err != nil {
			return err
		}
		s.dbs[loc.Key()] = db
		s.logger.Debug("stream partition created", "stream", s.name, "db", path)
	}
	return nil
}

// Delete implements stream.Manager.
func (s *Stream) Delete(ctx context.Context, opts stream.DeleteOptions) error {
	const op = "Delete"
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, loc := range all {
		path, err := s.dbPathFor(op, loc)
		if err != nil {
			return err
		}
		if !fileExists(path) {
			continue
		}
		found = true
		if err := s.dropPartition(loc.Key(), path); err != nil {
			return err
		}
		s.logger.Debug("stream partition deleted", "stream", s.name, "db", path)
	}
	if !found && !opts.SkipIfNotFound {
		return record.NewNotFoundError(op, "stream "+s.name)
	}
	return nil
}

// dropPartition closes the partition's connection and removes the database
// file together with its WAL siblings. Callers must hold s.mu.
func (s *Stream) dropPartition(key, path string) error {
	if db, ok := s.dbs[key]; ok {
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database %s: %w", path, err)
		}
		delete(s.dbs, key)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove database %s: %w", path, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove database sibling %s: %w", path+suffix, err)
		}
	}
	return nil
}

// dbFor returns the open database for a locator, opening it lazily when the
// file exists from an earlier process. Callers must hold s.mu.
func (s *Stream) dbFor(op string, loc locator.Locator) (*sql.DB, error) {
	if db, ok := s.dbs[loc.Key()]; ok {
		return db, nil
	}
	path, err := s.dbPathFor(op, loc)
	if err != nil {
		return nil, err
	}
	if !fileExists(path) {
		return nil, record.NewNotFoundError(op, "stream "+s.name)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	s.dbs[loc.Key()] = db
	return db, nil
}

// resolveDB returns the database for the explicit locator, or the
// resolver's unique partition when none was supplied. Callers must hold
// s.mu.
func (s *Stream) resolveDB(ctx context.Context, op string, explicit locator.Locator) (*sql.DB, error) {
	loc, err := stream.ResolveSingleLocator(ctx, op, s.resolver, explicit)
	if err != nil {
		return nil, err
	}
	return s.dbFor(op, loc)
}

// candidateDBs returns the databases a multi-partition operation should
// visit, in resolver order. Callers must hold s.mu.
func (s *Stream) candidateDBs(ctx context.Context, op string, explicit locator.Locator) ([]*sql.DB, error) {
	if explicit != nil {
		db, err := s.dbFor(op, explicit)
		if err != nil {
			return nil, err
		}
		return []*sql.DB{db}, nil
	}
	all, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	dbs := make([]*sql.DB, 0, len(all))
	for _, loc := range all {
		db, err := s.dbFor(op, loc)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CounterValues reads a partition's record and entry id counters without
// mutating them. Operator tooling support.
func (s *Stream) CounterValues(ctx context.Context, loc locator.Locator) (recordID, entryID int64, err error) {
	const op = "CounterValues"
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.dbFor(op, loc)
	if err != nil {
		return 0, 0, err
	}
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = 'record_id'").Scan(&recordID); err != nil {
		return 0, 0, fmt.Errorf("read record id counter: %w", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = 'entry_id'").Scan(&entryID); err != nil {
		return 0, 0, fmt.Errorf("read entry id counter: %w", err)
	}
	return recordID, entryID, nil
}
