package assistant

import (
	"io"
	"unicode/utf8"
)

// Stream is a forward-only cursor over an assistant reply. It cannot be
// rewound or shared between readers. A multi-byte character split across two
// transport chunks is carried over and emitted whole with the next delta.
type Stream struct {
	body   io.ReadCloser
	buf    []byte
	carry  []byte
	closed bool
}

func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		buf:  make([]byte, 4096),
	}
}

// Recv returns the next non-empty text delta. It returns io.EOF when the
// transport signals end-of-stream; any other error means the reply is
// unusable and the partial content should be discarded by the caller.
func (s *Stream) Recv() (string, error) {
	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			data := append(s.carry, s.buf[:n]...)
			complete := completeLen(data)
			s.carry = append([]byte(nil), data[complete:]...)
			if complete > 0 {
				return string(data[:complete]), nil
			}
		}
		if err != nil {
			if err == io.EOF && len(s.carry) > 0 {
				// flush the remainder, truncated rune or not
				rest := string(s.carry)
				s.carry = nil
				return rest, nil
			}
			s.Close()
			return "", err
		}
	}
}

// Close releases the underlying transport. Safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// completeLen returns the length of the longest prefix of data that ends on a
// rune boundary. At most utf8.UTFMax-1 trailing bytes are ever held back.
func completeLen(data []byte) int {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if utf8.FullRune(data[i:]) {
				return len(data)
			}
			return i
		}
	}
	return len(data)
}
