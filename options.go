package mobi

import (
	"context"
	"runtime"
)

type readConfig struct {
	ctx              context.Context
	limits           Limits
	workers          int
	truncateToLength bool
	headersOnly      bool
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

// WithWorkers sets how many records are decompressed concurrently.
// Values below 1 mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) ReadOption {
	return func(c *readConfig) { c.workers = n }
}

// WithTruncateToTextLength cuts the concatenated text to the header's
// TextLength. Records are never truncated individually.
func WithTruncateToTextLength(v bool) ReadOption {
	return func(c *readConfig) { c.truncateToLength = v }
}

// WithHeadersOnly skips reading and decompressing text records.
func WithHeadersOnly(v bool) ReadOption {
	return func(c *readConfig) { c.headersOnly = v }
}

// WithContext lets a caller cancel decompression between records.
func WithContext(ctx context.Context) ReadOption {
	return func(c *readConfig) { c.ctx = ctx }
}

func (c *readConfig) workerCount() int {
	if c.workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return c.workers
}

type writeConfig struct {
	limits      Limits
	compression Compression
}

type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

// WithCompression selects how text records are stored: CompressionPalmDOC
// (the default) or CompressionNone.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.compression = comp }
}
