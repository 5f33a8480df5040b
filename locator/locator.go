// Package locator defines opaque handles to physical stream partitions and
// the protocol for resolving them.
//
// The core treats a Locator purely as a lookup key: memstream keys its
// partition maps by it, filestream maps it to a root folder, sqlitestream to
// a database file. Which partition a given object id lives in is decided
// entirely by the Resolver supplied to the backend.
package locator

import (
	"context"
	"path/filepath"
)

// Locator identifies one physical storage partition.
type Locator interface {
	// Key returns a stable string key for the partition, usable as a map
	// key. Two locators address the same partition iff their keys match.
	Key() string
}

// Memory addresses a named in-process partition.
type Memory struct {
	Name string
}

// Key implements Locator.
func (m Memory) Key() string { return "memory:" + m.Name }

// FileSystem addresses a partition rooted at a folder on disk.
type FileSystem struct {
	RootPath string
}

// Key implements Locator.
func (f FileSystem) Key() string { return "file:" + filepath.Clean(f.RootPath) }

// None is the "no locator needed" sentinel for backends that manage exactly
// one partition.
type None struct{}

// Key implements Locator.
func (None) Key() string { return "none" }

// Resolver maps ids to partitions and enumerates all partitions of a
// stream. Implementations live outside the core; SingleResolver covers the
// common single-partition case.
type Resolver interface {
	// ResolveAll returns every partition of the stream, in the order
	// multi-partition operations should visit them.
	ResolveAll(ctx context.Context) ([]Locator, error)

	// ResolveForID returns the partition a given string-serialized id
	// belongs to.
	ResolveForID(ctx context.Context, id string) (Locator, error)
}

// SingleResolver resolves every id to one fixed partition.
type SingleResolver struct {
	Target Locator
}

// NewSingleResolver creates a resolver over one partition.
func NewSingleResolver(target Locator) SingleResolver {
	return SingleResolver{Target: target}
}

// ResolveAll implements Resolver.
func (r SingleResolver) ResolveAll(ctx context.Context) ([]Locator, error) {
	return []Locator{r.Target}, nil
}

// ResolveForID implements Resolver.
func (r SingleResolver) ResolveForID(ctx context.Context, id string) (Locator, error) {
	return r.Target, nil
}
