package iso

import (
	"context"
	"fmt"
	"os"

	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/bgrewell/isoforge/pkg/engine"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/option"
	"github.com/go-logr/logr"
)

// ISOType represents the type of ISO image
type ISOType int

const (
	ISO9660 ISOType = iota
)

// Options represents the options for creating an ISO image
type Options struct {
	isoType ISOType
	logger  logr.Logger

	volumeID         string
	rockRidgeEnabled bool
	jolietEnabled    bool
	iso1999Enabled   bool
	isoLevel         int
	fifoBlockCount   int
	onProgress       option.EmissionProgressCallback
}

// Option represents a function that modifies the Options
type Option func(*Options)

// WithIsoType sets the ISO type for the image. Currently only ISO9660 is supported.
func WithIsoType(isoType ISOType) Option {
	return func(o *Options) {
		o.isoType = isoType
	}
}

// WithLogger sets the logger for the ISO image
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithVolumeID sets the volume identifier recorded in the primary (and, if
// enabled, secondary) volume descriptors of a created image.
func WithVolumeID(id string) Option {
	return func(o *Options) {
		o.volumeID = id
	}
}

// WithRockRidge enables emission of Rock Ridge (RRIP) system use entries.
func WithRockRidge(enabled bool) Option {
	return func(o *Options) {
		o.rockRidgeEnabled = enabled
	}
}

// WithJoliet enables emission of a Joliet supplementary volume descriptor
// alongside the primary ECMA-119 tree.
func WithJoliet(enabled bool) Option {
	return func(o *Options) {
		o.jolietEnabled = enabled
	}
}

// WithISO1999 enables emission of an ISO 9660:1999 enhanced volume
// descriptor alongside the primary ECMA-119 tree.
func WithISO1999(enabled bool) Option {
	return func(o *Options) {
		o.iso1999Enabled = enabled
	}
}

// WithISOLevel sets the ECMA-119 interchange level (1, 2, or 3) used for
// naming and file-size limits during creation.
func WithISOLevel(level int) Option {
	return func(o *Options) {
		o.isoLevel = level
	}
}

// WithFifoBlockCount sets the ring buffer's block capacity used while
// streaming a created image to disk.
func WithFifoBlockCount(n int) Option {
	return func(o *Options) {
		o.fifoBlockCount = n
	}
}

// WithProgress sets a callback fired every time emission crosses another 5%
// of the image's total size, with a human-readable description of how much
// has been written.
//
// Parameters:
//   - message: a human-readable summary, e.g. "512 MB / 2.1 GB written (25%)".
//   - percent: the just-crossed 5%-multiple threshold (5, 10, 15, ... 100).
func WithProgress(callback option.EmissionProgressCallback) Option {
	return func(o *Options) {
		o.onProgress = callback
	}
}

// Create builds a logical tree from the contents of the host directory at
// location and prepares an image ready to be written out with Write. The
// directory itself is not read again until Write runs the emission engine.
func Create(location string, opts ...Option) (Image, error) {
	options := Options{
		isoType:          ISO9660,
		rockRidgeEnabled: true,
		isoLevel:         3,
		fifoBlockCount:   1024,
		logger:           logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	switch options.isoType {
	case ISO9660:
		image := &ISO9660Image{options: options}
		if err := image.Create(location); err != nil {
			return nil, fmt.Errorf("failed to create ISO: %w", err)
		}
		return image, nil
	default:
		return nil, fmt.Errorf("unsupported ISO type: %d", options.isoType)
	}
}

// Image represents an ISO image being assembled for emission.
type Image interface {
	Create(isoLocation string) error
	Write(isoLocation string) error
	String() string
}

// ISO9660Image represents an ISO 9660 image under construction.
type ISO9660Image struct {
	options Options
	logger  logr.Logger

	// sourceTree is the logical tree (component A) built from a host
	// directory by Create, consumed by Write.
	sourceTree *logicaltree.Tree

	// sourceLocation records the host directory Create read from, used
	// only for String's diagnostic summary.
	sourceLocation string
}

// Create builds this image's logical tree from the host directory at
// isoLocation. The on-disc image itself is not produced until Write runs.
func (i *ISO9660Image) Create(isoLocation string) (err error) {
	i.logger = i.options.logger
	if i.logger.GetSink() == nil {
		i.logger = logr.Discard()
	}
	i.sourceLocation = isoLocation

	tree, err := logicaltree.FromHostDirectory(isoLocation, logicaltree.DirWalkOptions{
		Log: i.logger,
	}, func(path string, log logr.Logger) (logicaltree.ContentHandle, error) {
		return contentstream.NewFileSourceStream(path, log)
	})
	if err != nil {
		return fmt.Errorf("failed to build logical tree from %s: %w", isoLocation, err)
	}

	i.sourceTree = tree
	return nil
}

// Write runs the emission engine (component E through component G) over
// the logical tree Create built and streams the resulting image to
// isoLocation.
func (i *ISO9660Image) Write(isoLocation string) error {
	if i.sourceTree == nil {
		return fmt.Errorf("iso 9660 image has no logical tree to write; call Create first")
	}

	volumeID := i.options.volumeID
	if volumeID == "" {
		volumeID = "ISOFORGE"
	}

	opts := option.NewEmitOptions(
		option.WithIsoLevel(i.options.isoLevel),
		option.WithRockRidge(i.options.rockRidgeEnabled),
		option.WithJoliet(i.options.jolietEnabled),
		option.WithISO1999(i.options.iso1999Enabled),
		option.WithFifoBlockCount(i.options.fifoBlockCount),
		option.WithProgress(i.options.onProgress),
	)

	out, err := os.Create(isoLocation)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", isoLocation, err)
	}
	defer out.Close()

	_, err = engine.Emit(context.Background(), out, engine.Request{
		Tree:     i.sourceTree,
		VolumeID: volumeID,
		AppName:  "isoforge",
		Log:      i.logger,
	}, opts)
	if err != nil {
		return fmt.Errorf("failed to write ISO 9660 image: %w", err)
	}

	return nil
}

// String returns a short diagnostic summary of the image under construction.
func (i *ISO9660Image) String() string {
	return fmt.Sprintf("ISO 9660 Image: source=%s volumeID=%s", i.sourceLocation, i.options.volumeID)
}
