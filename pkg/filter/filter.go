// Package filter implements component H: the content-stream filter chain.
// A filter wraps another contentstream.Stream and presents itself as a
// stream in turn, so filters compose transparently with the rest of the
// write path.
package filter

import (
	"github.com/bgrewell/isoforge/pkg/contentstream"
)

// InstallPolicy governs whether a filter, once computed, is actually
// spliced in front of a stream.
type InstallPolicy int

const (
	// InstallIfReduction installs the filter only if its output is smaller
	// than its input.
	InstallIfReduction InstallPolicy = iota
	// InstallIfBlockReduction installs the filter only if its output is
	// smaller by at least one whole sector, avoiding filters whose savings
	// round away to nothing once padded to a block boundary.
	InstallIfBlockReduction
	// InstallAlways installs the filter regardless of size outcome.
	InstallAlways
)

// Filter produces a filtered view of an existing stream. Every Filter
// requires a repeatable input, since computing its size means reading the
// input once during layout and again during emission.
type Filter interface {
	// Name identifies the filter for diagnostics, e.g. "zisofs" or
	// "external:gzip".
	Name() string

	// Apply wraps input, returning the filtered stream. It returns an
	// error immediately, without wrapping, if input is not repeatable.
	Apply(input contentstream.Stream) (contentstream.Stream, error)
}

// ErrNotRepeatable is returned by Apply when its input cannot be read twice.
var ErrNotRepeatable = filterError("filter: input stream is not repeatable")

type filterError string

func (e filterError) Error() string { return string(e) }

// ShouldInstall evaluates policy given the original and filtered sizes.
func ShouldInstall(policy InstallPolicy, originalSize, filteredSize uint32) bool {
	switch policy {
	case InstallAlways:
		return true
	case InstallIfBlockReduction:
		return filteredSize+2048 <= originalSize
	default:
		return filteredSize < originalSize
	}
}
