package contentstream

import (
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"
)

// FileSourceStream reads a file's content from the host filesystem. Its
// Identity is derived from the file's device and inode numbers, the same
// triple original_source's filesrc.c uses via iso_stream_get_id, so two
// FileSourceStreams over the same host inode compare equal to component C's
// dedup table.
type FileSourceStream struct {
	Path string
	Log  logr.Logger

	mu           sync.Mutex
	f            *os.File
	recordedSize uint32
	identity     Identity
	drift        DriftPolicy
	opened       bool
	shortReadHit bool
}

// NewFileSourceStream creates a stream over path. The identity triple and
// recorded size are captured immediately via os.Stat so that a layout pass
// can call Size without opening the file.
func NewFileSourceStream(path string, log logr.Logger) (*FileSourceStream, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	s := &FileSourceStream{Path: path, Log: log, recordedSize: uint32(fi.Size())}
	s.identity = identityFromFileInfo(fi)
	return s, nil
}

func (s *FileSourceStream) Tag() Tag { return TagFileSource }

func (s *FileSourceStream) StreamIdentity() Identity { return s.identity }

func (s *FileSourceStream) Identity() (fsID uint32, devID uint64, inoID uint64) {
	return s.identity.FilesystemID, s.identity.DeviceID, s.identity.InodeID
}

func (s *FileSourceStream) Repeatable() bool { return true }

func (s *FileSourceStream) Size() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordedSize, nil
}

func (s *FileSourceStream) Drift() DriftPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drift
}

// Open opens the host file and re-measures its size, classifying any
// discrepancy from the size recorded at construction time per the
// size-drift contract.
func (s *FileSourceStream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	actual := uint32(fi.Size())
	switch {
	case actual == s.recordedSize:
		s.drift = DriftOK
	case actual > s.recordedSize:
		s.drift = DriftLarger
	default:
		s.drift = DriftSmaller
		s.Log.V(1).Info("file shrank since layout was measured, padding with zeros", "path", s.Path,
			"recorded", s.recordedSize, "actual", actual)
	}

	s.f = f
	s.opened = true
	s.shortReadHit = false
	return nil
}

// Read serves bytes up to the originally recorded size regardless of any
// drift: a file that grew is truncated at the recorded size, and a file
// that shrank is zero-padded up to it, so io.Copy-style callers receive
// exactly the recorded number of bytes. Read does not return ErrShortRead;
// a shrink is logged by Open.
func (s *FileSourceStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return 0, io.ErrClosedPipe
	}

	pos, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	remaining := int64(s.recordedSize) - pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := s.f.Read(p)
	if err == io.EOF && s.drift == DriftSmaller {
		s.shortReadHit = true
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		_, err = s.f.Seek(pos+int64(len(p)), io.SeekStart)
		return len(p), err
	}
	return n, err
}

func (s *FileSourceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.opened = false
	return err
}

func identityFromFileInfo(fi os.FileInfo) Identity {
	return platformIdentity(fi)
}
