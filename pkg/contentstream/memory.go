package contentstream

import (
	"bytes"
	"io"
)

// MemoryStream serves content already held in memory: synthesized path
// tables, volume descriptors staged for the overwrite buffer, or small
// caller-supplied buffers passed to AddChild as file content. It has no
// natural dedup identity, so two MemoryStreams are never considered the
// same content even if their bytes happen to match.
type MemoryStream struct {
	data []byte
	r    *bytes.Reader
}

// NewMemoryStream wraps data. The slice is not copied; callers must not
// mutate it after handing it to a MemoryStream.
func NewMemoryStream(data []byte) *MemoryStream {
	return &MemoryStream{data: data}
}

func (s *MemoryStream) Tag() Tag { return TagMemory }

func (s *MemoryStream) StreamIdentity() Identity { return Identity{} }

func (s *MemoryStream) Identity() (fsID uint32, devID uint64, inoID uint64) { return 0, 0, 0 }

func (s *MemoryStream) Repeatable() bool { return true }

func (s *MemoryStream) Size() (uint32, error) { return uint32(len(s.data)), nil }

func (s *MemoryStream) Open() error {
	s.r = bytes.NewReader(s.data)
	return nil
}

func (s *MemoryStream) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, io.ErrClosedPipe
	}
	return s.r.Read(p)
}

func (s *MemoryStream) Close() error {
	s.r = nil
	return nil
}
