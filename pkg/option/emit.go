package option

import "time"

// EmissionProgressCallback is fired every time emission crosses another 5%
// of the image's total size. message is a human-readable summary (e.g.
// "512 MB / 2.1 GB written (25%)"); percent is the just-crossed 5%-multiple
// threshold.
type EmissionProgressCallback func(message string, bytesWritten, totalBytes int64, percent int)

// ReplaceTimestampMode controls how a node's recorded timestamps are
// transformed before projection, mirroring
// original_source/libisofs/ecma119.c's iso_write_opts_set_replace_timestamps.
type ReplaceTimestampMode int

const (
	TimestampsKeep ReplaceTimestampMode = iota
	TimestampsNow
	TimestampsFixed
)

// ReplaceOwnershipMode controls how a node's uid/gid/mode are transformed
// before projection.
type ReplaceOwnershipMode int

const (
	ReplaceKeep ReplaceOwnershipMode = iota
	ReplaceDefault
	ReplaceFixed
)

// EmitOptions is the full emission option surface: naming-standard
// selection, path policing, ownership/timestamp normalization, and
// session/ring-buffer tuning.
type EmitOptions struct {
	IsoLevel int // 1, 2 or 3

	RockRidge bool
	Joliet    bool
	ISO1999   bool

	OmitVersionNumbers bool
	AllowDeepPaths     bool
	AllowLongerPaths   bool
	Max37CharFilenames bool
	NoForceDots        bool
	AllowLowercase     bool
	AllowFullASCII     bool
	JolietLongerPaths  bool

	ReplaceTimestamps     ReplaceTimestampMode
	FixedTimestamp        time.Time
	ReplaceUID            ReplaceOwnershipMode
	FixedUID              uint32
	ReplaceGID            ReplaceOwnershipMode
	FixedGID              uint32
	ReplaceDirMode        ReplaceOwnershipMode
	FixedDirMode          uint32
	ReplaceFileMode       ReplaceOwnershipMode
	FixedFileMode         uint32

	SortFiles   bool
	AlwaysGMT   bool
	OutputCharset string

	Appendable     bool
	StartLBA       uint32
	FifoBlockCount int // ring-buffer capacity, >= 32, default 1024

	OnProgress EmissionProgressCallback
}

// EmitOption mutates an EmitOptions during construction.
type EmitOption func(*EmitOptions)

// DefaultEmitOptions mirrors original_source's own emission defaults:
// level 3, no extensions, version numbers kept, a 1024-block ring buffer.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{
		IsoLevel:       3,
		Max37CharFilenames: false,
		FifoBlockCount: 1024,
	}
}

func NewEmitOptions(opts ...EmitOption) EmitOptions {
	o := DefaultEmitOptions()
	for _, apply := range opts {
		apply(&o)
	}
	if o.Max37CharFilenames {
		o.OmitVersionNumbers = true
	}
	if o.FifoBlockCount < 32 {
		o.FifoBlockCount = 32
	}
	return o
}

func WithIsoLevel(level int) EmitOption {
	return func(o *EmitOptions) { o.IsoLevel = level }
}

func WithRockRidge(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.RockRidge = enabled }
}

func WithJoliet(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.Joliet = enabled }
}

func WithISO1999(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.ISO1999 = enabled }
}

func WithOmitVersionNumbers(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.OmitVersionNumbers = enabled }
}

func WithAllowDeepPaths(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.AllowDeepPaths = enabled }
}

func WithAllowLongerPaths(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.AllowLongerPaths = enabled }
}

func WithMax37CharFilenames(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.Max37CharFilenames = enabled }
}

func WithNoForceDots(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.NoForceDots = enabled }
}

func WithAllowLowercase(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.AllowLowercase = enabled }
}

func WithAllowFullASCII(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.AllowFullASCII = enabled }
}

func WithJolietLongerPaths(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.JolietLongerPaths = enabled }
}

func WithReplaceTimestamps(mode ReplaceTimestampMode, fixed time.Time) EmitOption {
	return func(o *EmitOptions) {
		o.ReplaceTimestamps = mode
		o.FixedTimestamp = fixed
	}
}

func WithReplaceUID(mode ReplaceOwnershipMode, uid uint32) EmitOption {
	return func(o *EmitOptions) { o.ReplaceUID = mode; o.FixedUID = uid }
}

func WithReplaceGID(mode ReplaceOwnershipMode, gid uint32) EmitOption {
	return func(o *EmitOptions) { o.ReplaceGID = mode; o.FixedGID = gid }
}

func WithReplaceDirMode(mode ReplaceOwnershipMode, m uint32) EmitOption {
	return func(o *EmitOptions) { o.ReplaceDirMode = mode; o.FixedDirMode = m }
}

func WithReplaceFileMode(mode ReplaceOwnershipMode, m uint32) EmitOption {
	return func(o *EmitOptions) { o.ReplaceFileMode = mode; o.FixedFileMode = m }
}

func WithSortFiles(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.SortFiles = enabled }
}

func WithAlwaysGMT(enabled bool) EmitOption {
	return func(o *EmitOptions) { o.AlwaysGMT = enabled }
}

func WithOutputCharset(charset string) EmitOption {
	return func(o *EmitOptions) { o.OutputCharset = charset }
}

func WithAppendable(enabled bool, startLBA uint32) EmitOption {
	return func(o *EmitOptions) { o.Appendable = enabled; o.StartLBA = startLBA }
}

func WithFifoBlockCount(n int) EmitOption {
	return func(o *EmitOptions) { o.FifoBlockCount = n }
}

// WithProgress registers a callback fired every time emission crosses
// another 5% of the image's total size. A nil callback disables reporting.
func WithProgress(callback EmissionProgressCallback) EmitOption {
	return func(o *EmitOptions) { o.OnProgress = callback }
}
