// Package config loads tuning and logging settings for the geometry kernel
// and maps them onto the options of the index structures.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bmharper/geomkernel/disjoint"
	"github.com/bmharper/geomkernel/rtree"
)

// Config is the top-level configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Index     IndexConfig     `mapstructure:"index"`
	Intervals IntervalsConfig `mapstructure:"intervals"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// IndexConfig tunes the spatial index.
type IndexConfig struct {
	MaxEntries   int `mapstructure:"max_entries"`
	MinEntries   int `mapstructure:"min_entries"`
	BulkNodeSize int `mapstructure:"bulk_node_size"`
}

// IntervalsConfig tunes the disjoint interval sets.
type IntervalsConfig struct {
	BTreeDegree int `mapstructure:"btree_degree"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default values.
const (
	DefaultIndexMaxEntries      = rtree.DefaultMaxEntries
	DefaultIndexMinEntries      = 0 // derived from max_entries
	DefaultIndexBulkNodeSize    = 0 // same as max_entries
	DefaultIntervalsBTreeDegree = 32
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
)

const minIndexMaxEntries = 4

var (
	// ErrInvalidMaxEntries indicates the fan-out is too small.
	ErrInvalidMaxEntries = errors.New("index.max_entries must be at least 4")
	// ErrInvalidMinEntries indicates the minimum fill is negative or above half the fan-out.
	ErrInvalidMinEntries = errors.New("index.min_entries must be between 0 and max_entries/2")
	// ErrInvalidBulkNodeSize indicates the bulk node size is negative or above the fan-out.
	ErrInvalidBulkNodeSize = errors.New("index.bulk_node_size must be between 0 and max_entries")
	// ErrInvalidBTreeDegree indicates the B-tree degree is negative.
	ErrInvalidBTreeDegree = errors.New("intervals.btree_degree must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
)

// Validate checks the configuration for values the kernel can not use.
func (c *Config) Validate() error {
	switch {
	case c.Index.MaxEntries < minIndexMaxEntries:
		return ErrInvalidMaxEntries
	case c.Index.MinEntries < 0 || c.Index.MinEntries > c.Index.MaxEntries/2:
		return ErrInvalidMinEntries
	case c.Index.BulkNodeSize < 0 || c.Index.BulkNodeSize > c.Index.MaxEntries:
		return ErrInvalidBulkNodeSize
	case c.Intervals.BTreeDegree < 0:
		return ErrInvalidBTreeDegree
	}
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		return ErrInvalidLogFormat
	}
	return nil
}

func (l LoggingConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
}

// NewLogger builds a logger writing to w with the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Logging.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(c.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// IndexOptions returns the spatial index options for this configuration.
// A nil logger keeps the index silent.
func (c *Config) IndexOptions(logger *slog.Logger) []rtree.Option {
	opts := []rtree.Option{rtree.WithMaxEntries(c.Index.MaxEntries)}
	if c.Index.MinEntries > 0 {
		opts = append(opts, rtree.WithMinEntries(c.Index.MinEntries))
	}
	if c.Index.BulkNodeSize > 0 {
		opts = append(opts, rtree.WithBulkNodeSize(c.Index.BulkNodeSize))
	}
	if logger != nil {
		opts = append(opts, rtree.WithLogger(logger))
	}
	return opts
}

// SetOptions returns the disjoint interval set options for this
// configuration. A nil logger keeps the set silent.
func (c *Config) SetOptions(logger *slog.Logger) []disjoint.Option {
	var opts []disjoint.Option
	if c.Intervals.BTreeDegree > 0 {
		opts = append(opts, disjoint.WithDegree(c.Intervals.BTreeDegree))
	}
	if logger != nil {
		opts = append(opts, disjoint.WithLogger(logger))
	}
	return opts
}
