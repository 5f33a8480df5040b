package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strandkit/strand/filestream"
	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/sqlitestream"
	"github.com/strandkit/strand/stream"
)

// Config describes the stream a command operates on.
type Config struct {
	// Stream is the stream name.
	Stream string `yaml:"stream"`

	// Backend selects the storage backend: "file" or "sqlite".
	Backend string `yaml:"backend"`

	// Roots are the partition root directories, one per partition.
	Roots []string `yaml:"roots"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read config", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, WrapExitError(ExitCommandError, "parse config", err)
	}
	if cfg.Stream == "" {
		return nil, NewExitError(ExitCommandError, "config: stream name must be set")
	}
	if len(cfg.Roots) == 0 {
		return nil, NewExitError(ExitCommandError, "config: at least one root must be set")
	}
	switch cfg.Backend {
	case "file", "sqlite":
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("config: unknown backend %q (want file or sqlite)", cfg.Backend))
	}
	return &cfg, nil
}

// rootsResolver enumerates one FileSystem partition per configured root.
// ResolveForID always answers the first root; operator commands address
// partitions explicitly when it matters.
type rootsResolver struct {
	roots []string
}

func (r rootsResolver) ResolveAll(ctx context.Context) ([]locator.Locator, error) {
	out := make([]locator.Locator, len(r.roots))
	for i, root := range r.roots {
		out[i] = locator.FileSystem{RootPath: root}
	}
	return out, nil
}

func (r rootsResolver) ResolveForID(ctx context.Context, id string) (locator.Locator, error) {
	return locator.FileSystem{RootPath: r.roots[0]}, nil
}

// OpenStream builds the configured backend. The returned cleanup releases
// backend resources and must always be called.
func (c *Config) OpenStream() (stream.Stream, func() error, error) {
	resolver := rootsResolver{roots: c.Roots}
	switch c.Backend {
	case "file":
		s, err := filestream.New(c.Stream, resolver, filestream.Options{})
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "open file stream", err)
		}
		return s, func() error { return nil }, nil
	case "sqlite":
		s, err := sqlitestream.New(c.Stream, resolver, sqlitestream.Options{})
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "open sqlite stream", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q", c.Backend))
	}
}

// loadStream is the common command preamble: read the config and open the
// stream.
func loadStream(opts *RootOptions) (*Config, stream.Stream, func() error, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}
	s, cleanup, err := cfg.OpenStream()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, s, cleanup, nil
}
